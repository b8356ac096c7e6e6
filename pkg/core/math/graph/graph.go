package graph

// Node represents a node in a graph
type Node interface {
	// Equal checks if two nodes are the same
	Equal(other Node) bool
}

// Graph provides neighbors and edge costs
type Graph interface {
	Neighbors(n Node) []Node
	Cost(from, to Node) float32
}
