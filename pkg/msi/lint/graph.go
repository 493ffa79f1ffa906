package lint

// Graph is a directed graph over string nodes. Nodes keep their
// insertion order so walks are deterministic.
type Graph struct {
	nodes   []string
	known   map[string]struct{}
	edges   map[string][]string
	targets []string
	pointed map[string]struct{}
}

func NewGraph() *Graph {
	return &Graph{
		known:   make(map[string]struct{}),
		edges:   make(map[string][]string),
		pointed: make(map[string]struct{}),
	}
}

func (g *Graph) AddNode(n string) {
	if _, ok := g.known[n]; ok {
		return
	}
	g.known[n] = struct{}{}
	g.nodes = append(g.nodes, n)
}

// AddEdge records from -> to. Only from becomes a node; edges may point
// outside the graph.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.edges[from] = append(g.edges[from], to)
	if _, ok := g.pointed[to]; !ok {
		g.pointed[to] = struct{}{}
		g.targets = append(g.targets, to)
	}
}

func (g *Graph) HasNode(n string) bool {
	_, ok := g.known[n]
	return ok
}

func (g *Graph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Targets lists every edge target, nodes or not, in the order they
// were first seen.
func (g *Graph) Targets() []string {
	return append([]string(nil), g.targets...)
}

func (g *Graph) Successors(n string) []string {
	return append([]string(nil), g.edges[n]...)
}

// Predecessors maps each edge target to its sources, in node order.
func (g *Graph) Predecessors() map[string][]string {
	preds := make(map[string][]string)
	for _, from := range g.nodes {
		for _, to := range g.edges[from] {
			preds[to] = append(preds[to], from)
		}
	}
	return preds
}

// DeadEnd walks edges depth first from start and returns the first node
// without a successor. Nodes in visited are not walked again and every
// node reached is added to it. Edges leaving the graph end the walk
// without a dead end.
func (g *Graph) DeadEnd(start string, visited map[string]struct{}) (string, bool) {
	if !g.HasNode(start) {
		return "", false
	}
	if _, seen := visited[start]; seen {
		return "", false
	}
	visited[start] = struct{}{}

	next := g.edges[start]
	if len(next) == 0 {
		return start, true
	}
	for _, n := range next {
		if dead, ok := g.DeadEnd(n, visited); ok {
			return dead, true
		}
	}
	return "", false
}
