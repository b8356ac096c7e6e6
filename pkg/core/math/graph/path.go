package graph

// Path represents a path through the graph, in order from start to goal.
type Path []Node
