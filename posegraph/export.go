package posegraph

import (
	"fmt"
	"io"
	"os"
)

// WriteDOT exports the graph in Graphviz .dot syntax: one line per vertex,
// keyed by id and carrying its label, and one line per directed edge (both
// halves of every symmetric pair), carrying the edge label. This is a diagnostic format
// only, not a stable on-disk representation.
func (g *Graph) WriteDOT(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph G {"); err != nil {
		return err
	}
	for _, v := range g.Vertices() {
		if _, err := fmt.Fprintf(w, "\t%d [label=%q];\n", v.ID, v.Label); err != nil {
			return err
		}
	}
	for _, e := range g.Edges() {
		if _, err := fmt.Fprintf(w, "\t%d -> %d [label=%q];\n", e.Source, e.Target, e.Label); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// WriteDOTFile writes the graph to baseName+".dot", mirroring the
// original's writeGraphToFile(name) which appended the same suffix.
func (g *Graph) WriteDOTFile(baseName string) error {
	f, err := os.Create(baseName + ".dot")
	if err != nil {
		return fmt.Errorf("posegraph: writing graph to file: %w", err)
	}
	defer f.Close()
	return g.WriteDOT(f)
}
