package topology

import (
	"fmt"

	"github.com/san-kum/softbody/internal/dynamo"
)

// Grid returns the canonical bond list for a rows x cols mesh. Particle
// idx = row*cols + col is bonded to its right neighbour and the one below.
func Grid(rows, cols int, restLength, stiffness float64) []dynamo.Bond {
	if rows < 1 || cols < 1 {
		return nil
	}
	bonds := make([]dynamo.Bond, 0, GridBondCount(rows, cols))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			idx := row*cols + col
			if col < cols-1 {
				bonds = append(bonds, dynamo.Bond{I: idx, J: idx + 1, RestLength: restLength, Stiffness: stiffness})
			}
			if row < rows-1 {
				bonds = append(bonds, dynamo.Bond{I: idx, J: idx + cols, RestLength: restLength, Stiffness: stiffness})
			}
		}
	}
	return bonds
}

func GridBondCount(rows, cols int) int {
	if rows < 1 || cols < 1 {
		return 0
	}
	return rows*(cols-1) + cols*(rows-1)
}

// Complete bonds every pair. Quadratic in n; only for small clouds and
// benchmarks against the grid list.
func Complete(n int, restLength, stiffness float64) []dynamo.Bond {
	if n < 2 {
		return nil
	}
	bonds := make([]dynamo.Bond, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			bonds = append(bonds, dynamo.Bond{I: i, J: j, RestLength: restLength, Stiffness: stiffness})
		}
	}
	return bonds
}

// Degrees counts the bonds touching each particle.
func Degrees(n int, bonds []dynamo.Bond) []int {
	deg := make([]int, n)
	for _, b := range bonds {
		if b.I >= 0 && b.I < n {
			deg[b.I]++
		}
		if b.J >= 0 && b.J < n {
			deg[b.J]++
		}
	}
	return deg
}

// Validate checks index ranges, self-bonds and duplicate pairs.
func Validate(n int, bonds []dynamo.Bond) error {
	type pair struct{ a, b int }
	seen := make(map[pair]struct{}, len(bonds))
	for k, b := range bonds {
		if b.I < 0 || b.I >= n || b.J < 0 || b.J >= n {
			return fmt.Errorf("%w: bond %d (%d,%d) outside %d particles", dynamo.ErrDimensionMismatch, k, b.I, b.J, n)
		}
		if b.I == b.J {
			return fmt.Errorf("%w: bond %d connects particle %d to itself", dynamo.ErrParameterBounds, k, b.I)
		}
		key := pair{b.I, b.J}
		if key.a > key.b {
			key.a, key.b = key.b, key.a
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate bond (%d,%d)", dynamo.ErrParameterBounds, key.a, key.b)
		}
		seen[key] = struct{}{}
	}
	return nil
}
