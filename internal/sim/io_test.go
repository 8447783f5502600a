package sim

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
)

func sampleTrajectory() TrajectoryData {
	return TrajectoryData{
		N: 3, Ncmd: 2,
		Limits: core.Limits{
			PMin: core.Vec3{X: -10, Y: -10, Z: 0},
			PMax: core.Vec3{X: 10, Y: 10, Z: 5},
		},
		InitialPos: []core.Vec3{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 5, Y: 5, Z: 1}},
		Goals:      []core.Vec3{{X: 5, Y: 0, Z: 1}, {X: 0, Y: 5, Z: 1}},
		Paths: [][]core.Vec3{
			{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 2, Y: 0, Z: 1}},
			{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 2, Z: 1}, {X: 1, Y: 3, Z: 1}},
		},
	}
}

func TestTrajectoryFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "traj.txt")
	want := sampleTrajectory()

	if err := WriteTrajectoryFile(path, want); err != nil {
		t.Fatalf("WriteTrajectoryFile: %v", err)
	}
	got, err := ReadTrajectoryFile(path)
	if err != nil {
		t.Fatalf("ReadTrajectoryFile: %v", err)
	}

	if got.N != want.N || got.Ncmd != want.Ncmd {
		t.Fatalf("N/Ncmd = %d/%d, want %d/%d", got.N, got.Ncmd, want.N, want.Ncmd)
	}
	if !reflect.DeepEqual(got.InitialPos, want.InitialPos) {
		t.Errorf("InitialPos = %+v, want %+v", got.InitialPos, want.InitialPos)
	}
	if !reflect.DeepEqual(got.Goals, want.Goals) {
		t.Errorf("Goals = %+v, want %+v", got.Goals, want.Goals)
	}
	if !reflect.DeepEqual(got.Paths, want.Paths) {
		t.Errorf("Paths = %+v, want %+v", got.Paths, want.Paths)
	}
	if got.Limits != want.Limits {
		t.Errorf("Limits = %+v, want %+v", got.Limits, want.Limits)
	}
}

func TestWriteGoalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goals.txt")
	paths := [][]core.Vec3{
		{{X: 5, Y: 0, Z: 1}, {X: 5, Y: 0, Z: 1}},
		{{X: 0, Y: 5, Z: 1}, {X: 0, Y: 5, Z: 1}},
	}
	if err := WriteGoalFile(path, paths); err != nil {
		t.Fatalf("WriteGoalFile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(raw) == 0 {
		t.Error("expected non-empty goal file")
	}
}

func TestReadTrajectoryFileRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ReadTrajectoryFile(path); err == nil {
		t.Error("expected error reading an empty trajectory file")
	}
}
