package mapper

// WriteGraphToFile exports the pose graph in Graphviz .dot syntax,
// delegating to posegraph.Graph's own writer — diagnostic only, not a
// stable on-disk format.
func (m *Mapper) WriteGraphToFile(baseName string) error {
	m.log.Info().Str("file", baseName+".dot").Msg("writing graph to file")
	return m.graph.WriteDOTFile(baseName)
}
