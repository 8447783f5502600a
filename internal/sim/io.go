package sim

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
)

// TrajectoryData is the in-memory shape of the trajectory file format (spec
// §6): initial positions and goals for every body, plus the executed
// position history for each commanded agent.
type TrajectoryData struct {
	N, Ncmd    int
	Limits     core.Limits
	InitialPos []core.Vec3 // length N
	Goals      []core.Vec3 // length Ncmd, goal position at t=0
	Paths      [][]core.Vec3 // length Ncmd, each length K_total
}

// WriteTrajectoryFile writes the header, initial-position block, goal
// block and per-agent path blocks in the exact whitespace-separated text
// format spec.md §6 describes: "N Ncmd pmin_x pmin_y pmin_z pmax_x pmax_y
// pmax_z" then a 3xN block, a 3xNcmd block, then Ncmd blocks of 3xK_total.
func WriteTrajectoryFile(path string, d TrajectoryData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sim: creating trajectory file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d %d %s %s %s %s %s %s\n",
		d.N, d.Ncmd,
		formatFloat(d.Limits.PMin.X), formatFloat(d.Limits.PMin.Y), formatFloat(d.Limits.PMin.Z),
		formatFloat(d.Limits.PMax.X), formatFloat(d.Limits.PMax.Y), formatFloat(d.Limits.PMax.Z))

	writeAxisBlock(w, d.InitialPos)
	writeAxisBlock(w, d.Goals)
	for _, path := range d.Paths {
		writeAxisBlock(w, path)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("sim: writing trajectory file: %w", err)
	}
	return nil
}

// WriteGoalFile writes Ncmd blocks of 3xK_total goal-position trajectories
// in the same whitespace format (spec §6).
func WriteGoalFile(path string, goalPaths [][]core.Vec3) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sim: creating goal file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, path := range goalPaths {
		writeAxisBlock(w, path)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("sim: writing goal file: %w", err)
	}
	return nil
}

// writeAxisBlock writes one 3xlen(points) block: an x-row, a y-row and a
// z-row, each a whitespace-separated line of len(points) values.
func writeAxisBlock(w *bufio.Writer, points []core.Vec3) {
	writeRow(w, points, func(p core.Vec3) float64 { return p.X })
	writeRow(w, points, func(p core.Vec3) float64 { return p.Y })
	writeRow(w, points, func(p core.Vec3) float64 { return p.Z })
}

func writeRow(w *bufio.Writer, points []core.Vec3, axis func(core.Vec3) float64) {
	for i, p := range points {
		if i > 0 {
			w.WriteByte(' ')
		}
		w.WriteString(formatFloat(axis(p)))
	}
	w.WriteByte('\n')
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadTrajectoryFile parses a file written by WriteTrajectoryFile, for the
// round-trip/idempotence property spec.md §8 requires ("rewriting the
// output trajectory file and re-reading it reproduces the in-memory arrays
// exactly to text precision").
func ReadTrajectoryFile(path string) (TrajectoryData, error) {
	f, err := os.Open(path)
	if err != nil {
		return TrajectoryData{}, fmt.Errorf("sim: opening trajectory file: %w", err)
	}
	defer f.Close()
	return readTrajectory(f)
}

func readTrajectory(r io.Reader) (TrajectoryData, error) {
	raw := bufio.NewScanner(r)
	raw.Buffer(make([]byte, 0, 64*1024), 1<<24)
	sc := &bufioScanner{Scanner: raw}

	if !sc.Scan() {
		return TrajectoryData{}, fmt.Errorf("sim: trajectory file is empty")
	}
	header := strings.Fields(sc.Text())
	if len(header) != 8 {
		return TrajectoryData{}, fmt.Errorf("sim: trajectory header has %d fields, want 8", len(header))
	}
	n, err := strconv.Atoi(header[0])
	if err != nil {
		return TrajectoryData{}, fmt.Errorf("sim: parsing N: %w", err)
	}
	ncmd, err := strconv.Atoi(header[1])
	if err != nil {
		return TrajectoryData{}, fmt.Errorf("sim: parsing Ncmd: %w", err)
	}
	bounds := make([]float64, 6)
	for i := range bounds {
		bounds[i], err = strconv.ParseFloat(header[2+i], 64)
		if err != nil {
			return TrajectoryData{}, fmt.Errorf("sim: parsing limit %d: %w", i, err)
		}
	}
	limits := core.Limits{
		PMin: core.Vec3{X: bounds[0], Y: bounds[1], Z: bounds[2]},
		PMax: core.Vec3{X: bounds[3], Y: bounds[4], Z: bounds[5]},
	}

	initial, err := readAxisBlock(sc, n)
	if err != nil {
		return TrajectoryData{}, fmt.Errorf("sim: reading initial positions: %w", err)
	}
	goals, err := readAxisBlock(sc, ncmd)
	if err != nil {
		return TrajectoryData{}, fmt.Errorf("sim: reading goals: %w", err)
	}

	paths := make([][]core.Vec3, ncmd)
	kTotal := -1
	for i := 0; i < ncmd; i++ {
		if i == 0 {
			kTotal, err = peekRowLength(sc)
			if err != nil {
				return TrajectoryData{}, fmt.Errorf("sim: reading path %d: %w", i, err)
			}
		}
		paths[i], err = readAxisBlock(sc, kTotal)
		if err != nil {
			return TrajectoryData{}, fmt.Errorf("sim: reading path %d: %w", i, err)
		}
	}

	return TrajectoryData{N: n, Ncmd: ncmd, Limits: limits, InitialPos: initial, Goals: goals, Paths: paths}, nil
}

// readAxisBlock reads one 3xcount block (x-row, y-row, z-row). If count < 0
// the row length is inferred from the x-row itself.
func readAxisBlock(sc *bufioScanner, count int) ([]core.Vec3, error) {
	xs, err := readRow(sc, count)
	if err != nil {
		return nil, err
	}
	ys, err := readRow(sc, len(xs))
	if err != nil {
		return nil, err
	}
	zs, err := readRow(sc, len(xs))
	if err != nil {
		return nil, err
	}
	out := make([]core.Vec3, len(xs))
	for i := range out {
		out[i] = core.Vec3{X: xs[i], Y: ys[i], Z: zs[i]}
	}
	return out, nil
}

func peekRowLength(sc *bufioScanner) (int, error) {
	row, err := readRow(sc, -1)
	if err != nil {
		return 0, err
	}
	sc.pushback = row
	return len(row), nil
}

func readRow(sc *bufioScanner, want int) ([]float64, error) {
	if sc.pushback != nil {
		row := sc.pushback
		sc.pushback = nil
		return row, nil
	}
	if !sc.Scan() {
		return nil, fmt.Errorf("unexpected end of file")
	}
	fields := strings.Fields(sc.Text())
	if want >= 0 && len(fields) != want {
		return nil, fmt.Errorf("row has %d fields, want %d", len(fields), want)
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing field %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// bufioScanner wraps bufio.Scanner with a one-row pushback buffer so
// peekRowLength can inspect the first path's row length (K_total isn't
// stored anywhere in the file) without consuming it twice.
type bufioScanner struct {
	*bufio.Scanner
	pushback []float64
}
