// Package assign implements optimal agent-to-goal reassignment: an exact
// O(N^3) Hungarian solver and the Reallocator state machine that decides
// when to re-run it (spec §4.7).
package assign

import (
	"errors"
	"math"
)

// ErrDimensionMismatch is returned when a cost matrix is not square.
var ErrDimensionMismatch = errors.New("assign: cost matrix must be square")

// Hungarian solves the minimum-cost bipartite assignment over an n x n
// cost matrix via the classic Kuhn-Munkres algorithm with dual potentials,
// O(n^3). Result[i] is the column (goal) assigned to row (agent) i.
func Hungarian(cost [][]float64) (result []int, totalCost float64, err error) {
	n := len(cost)
	for _, row := range cost {
		if len(row) != n {
			return nil, 0, ErrDimensionMismatch
		}
	}
	if n == 0 {
		return nil, 0, nil
	}

	const inf = math.MaxFloat64 / 4

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j]: row currently matched to column j (1-indexed, 0 = unmatched)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	result = make([]int, n)
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			result[p[j]-1] = j - 1
		}
	}
	for i, j := range result {
		totalCost += cost[i][j]
	}
	return result, totalCost, nil
}
