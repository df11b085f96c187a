package generator

import (
	"slices"
	"testing"

	"github.com/K1ngNothing/dungeon-generation/pkg/random"
)

func builder(seed uint64, strategy TreeStrategy, hub bool, hubNeighbors int) *GraphBuilder {
	return NewGraphBuilder(random.New(seed), Settings{
		TreeStrategy: strategy,
		DisableHub:   !hub,
		HubNeighbors: hubNeighbors,
	})
}

func TestIsTree(t *testing.T) {
	path := NewGraph(4)
	path.AddEdge(0, 1)
	path.AddEdge(1, 2)
	path.AddEdge(2, 3)

	cycle := NewGraph(3)
	cycle.AddEdge(0, 1)
	cycle.AddEdge(1, 2)
	cycle.AddEdge(2, 0)

	// n-1 edges but vertex 3 is unreachable.
	split := NewGraph(4)
	split.AddEdge(0, 1)
	split.AddEdge(1, 2)
	split.AddEdge(2, 0)

	tests := []struct {
		name string
		g    Graph
		want bool
	}{
		{"empty", NewGraph(0), true},
		{"single", NewGraph(1), true},
		{"path", path, true},
		{"cycle", cycle, false},
		{"disconnected", split, false},
		{"forest", NewGraph(2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTree(tt.g); got != tt.want {
				t.Errorf("IsTree() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTreeStrategies(t *testing.T) {
	for _, strategy := range []TreeStrategy{StrategyRandomPredecessors, StrategyRandomChildCount} {
		for _, n := range []int{1, 2, 3, 7, 50, 200} {
			for seed := uint64(1); seed <= 20; seed++ {
				g := builder(seed, strategy, true, n/10).Tree(n)
				if g.Len() != n {
					t.Fatalf("%s n=%d: got %d vertices", strategy, n, g.Len())
				}
				if !IsTree(g) {
					t.Fatalf("%s n=%d seed=%d: not a tree", strategy, n, seed)
				}
			}
		}
	}
}

func TestChildCountDegrees(t *testing.T) {
	tests := []struct {
		name         string
		n            int
		hub          bool
		hubNeighbors int
		wantRoot     int
	}{
		{"hub", 50, true, 5, 5},
		{"no hub", 50, false, 5, maxNeighbors},
		{"hub capped by rooms", 4, true, 10, 3},
		{"hub without neighbors", 5, true, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := uint64(1); seed <= 10; seed++ {
				g := builder(seed, StrategyRandomChildCount, tt.hub, tt.hubNeighbors).Tree(tt.n)
				if got := len(g.Neighbors(0)); got != tt.wantRoot {
					t.Fatalf("seed %d: root degree = %d, want %d", seed, got, tt.wantRoot)
				}
				for v := 1; v < tt.n; v++ {
					if d := len(g.Neighbors(v)); d > maxNeighbors {
						t.Fatalf("seed %d: vertex %d has degree %d", seed, v, d)
					}
				}
			}
		})
	}
}

func TestConnectedGraph(t *testing.T) {
	tests := []struct {
		name      string
		n, extra  int
		wantEdges int
	}{
		{"tree only", 10, 0, 9},
		{"extra edges", 30, 5, 34},
		{"capped at complete graph", 4, 100, 6},
		{"single vertex", 1, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := builder(3, StrategyRandomPredecessors, false, 0).ConnectedGraph(tt.n, tt.extra)
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", got, tt.wantEdges)
			}
			seen := map[[2]int]bool{}
			for _, e := range g.Edges() {
				if e[0] == e[1] {
					t.Errorf("loop at %d", e[0])
				}
				if seen[e] {
					t.Errorf("repeated edge %v", e)
				}
				seen[e] = true
			}
		})
	}
}

func TestGraphEdges(t *testing.T) {
	g := NewGraph(4)
	g.AddEdge(2, 0)
	g.AddEdge(0, 1)
	g.AddEdge(3, 1)

	want := [][2]int{{0, 1}, {0, 2}, {1, 3}}
	got := g.Edges()
	if len(got) != len(want) {
		t.Fatalf("Edges() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Edges()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGraphAdjacency(t *testing.T) {
	g := NewGraph(5)
	g.AddEdge(3, 1)
	g.AddEdge(1, 0)
	g.AddEdge(4, 1)

	if !g.HasEdge(1, 3) || !g.HasEdge(3, 1) {
		t.Error("edge 1-3 should be visible from both ends")
	}
	if g.HasEdge(0, 3) {
		t.Error("HasEdge(0, 3) = true for unlinked vertices")
	}
	if got, want := g.Neighbors(1), []int{0, 3, 4}; !slices.Equal(got, want) {
		t.Errorf("Neighbors(1) = %v, want %v", got, want)
	}
	if got := g.Neighbors(2); len(got) != 0 {
		t.Errorf("Neighbors(2) = %v, want none", got)
	}
}

func TestGraphAddEdgePanics(t *testing.T) {
	tests := []struct {
		name string
		u, v int
	}{
		{"repeated", 1, 0},
		{"loop", 2, 2},
		{"out of range", 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph(3)
			g.AddEdge(0, 1)
			defer func() {
				if recover() == nil {
					t.Errorf("AddEdge(%d, %d) did not panic", tt.u, tt.v)
				}
			}()
			g.AddEdge(tt.u, tt.v)
		})
	}
}
