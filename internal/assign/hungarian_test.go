package assign

import "testing"

func TestHungarianTrivialIdentity(t *testing.T) {
	cost := [][]float64{
		{0, 10, 10},
		{10, 0, 10},
		{10, 10, 0},
	}
	result, total, err := Hungarian(cost)
	if err != nil {
		t.Fatalf("Hungarian: %v", err)
	}
	for i, j := range result {
		if i != j {
			t.Errorf("result[%d] = %d, want %d", i, j, i)
		}
	}
	if total != 0 {
		t.Errorf("total cost = %f, want 0", total)
	}
}

func TestHungarianFindsOptimalSwap(t *testing.T) {
	// Agent 0 is cheap to goal 1, agent 1 is cheap to goal 0: optimal is a swap.
	cost := [][]float64{
		{10, 1},
		{1, 10},
	}
	result, total, err := Hungarian(cost)
	if err != nil {
		t.Fatalf("Hungarian: %v", err)
	}
	if result[0] != 1 || result[1] != 0 {
		t.Errorf("result = %v, want [1 0]", result)
	}
	if total != 2 {
		t.Errorf("total cost = %f, want 2", total)
	}
}

func TestHungarianRejectsNonSquare(t *testing.T) {
	cost := [][]float64{{1, 2, 3}, {4, 5, 6}}
	if _, _, err := Hungarian(cost); err != ErrDimensionMismatch {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestHungarianEmptyMatrix(t *testing.T) {
	result, total, err := Hungarian(nil)
	if err != nil || result != nil || total != 0 {
		t.Errorf("Hungarian(nil) = %v, %f, %v; want nil, 0, nil", result, total, err)
	}
}

func TestHungarianLargerInstance(t *testing.T) {
	cost := [][]float64{
		{4, 1, 3, 9},
		{2, 0, 5, 7},
		{3, 2, 2, 6},
		{9, 9, 9, 1},
	}
	result, total, err := Hungarian(cost)
	if err != nil {
		t.Fatalf("Hungarian: %v", err)
	}
	seen := make(map[int]bool)
	for _, j := range result {
		if seen[j] {
			t.Fatalf("result %v is not a bijection", result)
		}
		seen[j] = true
	}
	// brute-force check: no other permutation beats `total`.
	best := total
	perm := []int{0, 1, 2, 3}
	permute(perm, 0, func(p []int) {
		sum := 0.0
		for i, j := range p {
			sum += cost[i][j]
		}
		if sum < best {
			t.Errorf("found cheaper assignment %v with cost %f < Hungarian's %f", p, sum, best)
		}
	})
}

func permute(a []int, k int, visit func([]int)) {
	if k == len(a) {
		visit(a)
		return
	}
	for i := k; i < len(a); i++ {
		a[k], a[i] = a[i], a[k]
		permute(a, k+1, visit)
		a[k], a[i] = a[i], a[k]
	}
}
