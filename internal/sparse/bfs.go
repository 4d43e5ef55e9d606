package sparse

import "github.com/spectralgo/kpmcalc/internal/scalar"

// Frontier describes the breadth-first structure of a sparsity graph as seen
// from a set of source indices. Order lists the reached vertices in
// discovery order (sources first), and Sizes[k] is the number of vertices
// within k hops of the sources, so Sizes grows monotonically and
// Sizes[len(Sizes)-1] == len(Order).
//
// The Chebyshev recursion touches exactly the k-hop neighborhood of its
// starting vector after k applications of the operator, so Frontier is both
// the truncation rule (vertices never listed are never reached) and the
// locality-improving permutation (BFS discovery order keeps each wavefront
// contiguous in memory).
type Frontier struct {
	Order []int
	Sizes []int
}

// BFS walks the sparsity pattern of m breadth-first from the given source
// indices. Vertices in rows with no path from any source are excluded: the
// recursion provably never reaches them, so the induced submatrix on Order
// is the minimal working set.
//
// Duplicate sources are tolerated; index validity is the caller's contract.
func BFS[T scalar.Scalar](m *CSR[T], sources []int) Frontier {
	visited := make([]bool, m.Dim())
	order := make([]int, 0, len(sources))
	for _, s := range sources {
		if !visited[s] {
			visited[s] = true
			order = append(order, s)
		}
	}

	sizes := []int{len(order)}
	lo, hi := 0, len(order)
	for lo < hi {
		for _, i := range order[lo:hi] {
			cols, _ := m.Row(i)
			for _, j := range cols {
				if !visited[j] {
					visited[j] = true
					order = append(order, j)
				}
			}
		}
		lo, hi = hi, len(order)
		if hi > lo {
			sizes = append(sizes, hi)
		}
	}
	return Frontier{Order: order, Sizes: sizes}
}

// SizeAt returns the working-set size after k operator applications,
// saturating at the full reachable set.
func (f Frontier) SizeAt(k int) int {
	if k < 0 {
		k = 0
	}
	if k >= len(f.Sizes) {
		return f.Sizes[len(f.Sizes)-1]
	}
	return f.Sizes[k]
}
