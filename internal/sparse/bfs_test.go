package sparse

import "testing"

// chainMatrix builds the nearest-neighbor chain used as a graph fixture:
// its k-hop neighborhoods grow by exactly two sites per hop from an
// interior source.
func chainMatrix(n int) *CSR[float64] {
	var entries []Triplet[float64]
	for i := 0; i+1 < n; i++ {
		entries = append(entries,
			Triplet[float64]{Row: i, Col: i + 1, Val: 1},
			Triplet[float64]{Row: i + 1, Col: i, Val: 1})
	}
	m, err := FromTriplets(n, entries)
	if err != nil {
		panic(err)
	}
	return m
}

func TestBFSChainFromCenter(t *testing.T) {
	t.Parallel()
	m := chainMatrix(11)
	f := BFS(m, []int{5})

	if f.Order[0] != 5 {
		t.Errorf("Order[0] = %d, want the source 5", f.Order[0])
	}
	if len(f.Order) != 11 {
		t.Errorf("reached %d vertices, want all 11", len(f.Order))
	}

	// The k-hop neighborhood of an interior chain site has 2k+1 vertices.
	for k := 0; k <= 5; k++ {
		want := 2*k + 1
		if got := f.SizeAt(k); got != want {
			t.Errorf("SizeAt(%d) = %d, want %d", k, got, want)
		}
	}
	// Beyond the last frontier the size saturates.
	if got := f.SizeAt(100); got != 11 {
		t.Errorf("SizeAt(100) = %d, want 11", got)
	}
}

func TestBFSDisconnectedComponent(t *testing.T) {
	t.Parallel()
	// Two disjoint 2-site dimers; a walk from vertex 0 must never reach
	// the second dimer.
	m, err := FromTriplets(4, []Triplet[float64]{
		{Row: 0, Col: 1, Val: 1}, {Row: 1, Col: 0, Val: 1},
		{Row: 2, Col: 3, Val: 1}, {Row: 3, Col: 2, Val: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := BFS(m, []int{0})
	if len(f.Order) != 2 {
		t.Fatalf("reached %d vertices, want 2", len(f.Order))
	}
	for _, v := range f.Order {
		if v >= 2 {
			t.Errorf("vertex %d of the disconnected dimer was reached", v)
		}
	}
}

func TestBFSMultipleAndDuplicateSources(t *testing.T) {
	t.Parallel()
	m := chainMatrix(9)
	f := BFS(m, []int{2, 6, 2})

	if f.Sizes[0] != 2 {
		t.Errorf("Sizes[0] = %d, want 2 distinct sources", f.Sizes[0])
	}
	seen := make(map[int]bool)
	for _, v := range f.Order {
		if seen[v] {
			t.Fatalf("vertex %d listed twice", v)
		}
		seen[v] = true
	}
	if len(f.Order) != 9 {
		t.Errorf("reached %d vertices, want all 9", len(f.Order))
	}
}

func TestBFSSizesMonotonic(t *testing.T) {
	t.Parallel()
	m := chainMatrix(20)
	f := BFS(m, []int{0})
	for k := 1; k < len(f.Sizes); k++ {
		if f.Sizes[k] <= f.Sizes[k-1] {
			t.Errorf("Sizes not strictly growing at %d: %v", k, f.Sizes)
		}
	}
	if f.Sizes[len(f.Sizes)-1] != len(f.Order) {
		t.Error("final frontier size must equal the reached set size")
	}
}
