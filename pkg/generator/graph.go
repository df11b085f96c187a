package generator

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/lvlath/go/core"
	"github.com/lvlath/go/dfs"

	"github.com/K1ngNothing/dungeon-generation/pkg/random"
)

// maxNeighbors caps the degree of non-hub vertices built by the
// random-child-count strategy.
const maxNeighbors = 4

// Graph is an undirected room graph over vertices 0..n-1. Loops and repeated
// edges are rejected by the underlying lvlath graph.
type Graph struct {
	n int
	g *core.Graph
}

// NewGraph returns a graph with n vertices and no edges.
func NewGraph(n int) Graph {
	g, err := core.NewGraph()
	if err != nil {
		panic(fmt.Sprintf("generator: new graph: %v", err))
	}
	for v := range n {
		if err := g.AddVertex(vertexID(v)); err != nil {
			panic(fmt.Sprintf("generator: add vertex %d: %v", v, err))
		}
	}
	return Graph{n: n, g: g}
}

// Len returns the number of vertices.
func (g Graph) Len() int { return g.n }

// AddEdge links u and v. It panics on a loop or a repeated edge.
func (g Graph) AddEdge(u, v int) {
	g.checkVertex(u)
	g.checkVertex(v)
	if _, err := g.g.AddEdge(vertexID(u), vertexID(v), 0); err != nil {
		panic(fmt.Sprintf("generator: add edge %d-%d: %v", u, v, err))
	}
}

// HasEdge reports whether u and v are linked.
func (g Graph) HasEdge(u, v int) bool {
	return g.g.HasEdge(vertexID(u), vertexID(v))
}

// EdgeCount returns the number of undirected edges.
func (g Graph) EdgeCount() int { return g.g.EdgeCount() }

// Neighbors returns the vertices linked to v in increasing order.
func (g Graph) Neighbors(v int) []int {
	g.checkVertex(v)
	ids, err := g.g.NeighborIDs(vertexID(v))
	if err != nil {
		panic(fmt.Sprintf("generator: neighbors of %d: %v", v, err))
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = vertexIndex(id)
	}
	slices.Sort(out)
	return out
}

// Edges returns every edge once as (u, v) with u < v, sorted by u and then v.
func (g Graph) Edges() [][2]int {
	edges := make([][2]int, 0, g.EdgeCount())
	for _, e := range g.g.Edges() {
		u, v := vertexIndex(e.From), vertexIndex(e.To)
		edges = append(edges, [2]int{min(u, v), max(u, v)})
	}
	slices.SortFunc(edges, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	return edges
}

func (g Graph) checkVertex(v int) {
	if v < 0 || v >= g.n {
		panic(fmt.Sprintf("generator: vertex %d out of range [0, %d)", v, g.n))
	}
}

func vertexID(v int) string { return strconv.Itoa(v) }

func vertexIndex(id string) int {
	v, err := strconv.Atoi(id)
	if err != nil {
		panic(fmt.Sprintf("generator: foreign vertex id %q", id))
	}
	return v
}

// IsTree reports whether g is connected and has exactly n-1 edges. The empty
// graph is a tree.
func IsTree(g Graph) bool {
	if g.n == 0 {
		return true
	}
	if g.EdgeCount() != g.n-1 {
		return false
	}
	res, err := dfs.DFS(g.g, vertexID(0))
	if err != nil {
		return false
	}
	return len(res.Visited) == g.n
}

// GraphBuilder builds random room graphs from a shared random source.
type GraphBuilder struct {
	rng          *random.RNG
	strategy     TreeStrategy
	hub          bool
	hubNeighbors int
}

// NewGraphBuilder returns a builder using the tree strategy and hub settings
// of s.
func NewGraphBuilder(rng *random.RNG, s Settings) *GraphBuilder {
	return &GraphBuilder{
		rng:          rng,
		strategy:     s.TreeStrategy,
		hub:          s.Hub(),
		hubNeighbors: s.HubNeighbors,
	}
}

// Tree returns a random spanning tree over n vertices.
func (b *GraphBuilder) Tree(n int) Graph {
	var g Graph
	switch b.strategy {
	case StrategyRandomPredecessors:
		g = b.predecessorTree(n)
	case StrategyRandomChildCount, "":
		g = b.childCountTree(n)
	default:
		panic(fmt.Sprintf("generator: unknown tree strategy %q", b.strategy))
	}
	if !IsTree(g) {
		panic("generator: spanning tree is not a tree")
	}
	return g
}

// ConnectedGraph returns a spanning tree over n vertices plus extra random
// edges. Loops and repeated edges are never added; extra is capped at what
// the complete graph allows.
func (b *GraphBuilder) ConnectedGraph(n, extra int) Graph {
	g := b.Tree(n)
	if free := n*(n-1)/2 - g.EdgeCount(); extra > free {
		extra = free
	}

	for added := 0; added < extra; {
		v := b.rng.UniformDiscrete(n - 1)
		u := b.rng.UniformDiscrete(n - 1)
		if v == u || g.HasEdge(v, u) {
			continue
		}
		g.AddEdge(v, u)
		added++
	}
	return g
}

func (b *GraphBuilder) predecessorTree(n int) Graph {
	g := NewGraph(n)
	for v := 1; v < n; v++ {
		g.AddEdge(v, b.rng.UniformDiscrete(v-1))
	}
	return g
}

// childCountTree assigns children in breadth-first order. Vertex 0 takes as
// many children as allowed; every other vertex draws its child count. A
// vertex is forced to take one child when the next vertex would otherwise
// stay unreachable.
func (b *GraphBuilder) childCountTree(n int) Graph {
	g := NewGraph(n)
	if n <= 1 {
		return g
	}

	next := 1
	for v := 0; v < n; v++ {
		limit := maxNeighbors - 1
		if v == 0 {
			limit = maxNeighbors
			if b.hub {
				limit = b.hubNeighbors
			}
		}
		limit = min(limit, n-next)

		children := limit
		if v != 0 {
			children = b.rng.UniformDiscrete(limit)
		}
		if children == 0 && v+1 != n && next == v+1 {
			children = 1
		}
		for range children {
			g.AddEdge(v, next)
			next++
		}
	}
	return g
}
