package mapper

// Optimize drives the attached solver to convergence and applies its
// corrections back to the graph. The solver is assumed to have been fed
// incrementally via AddNode/AddConstraint during insertion, so this call
// is cheap relative to a batch re-solve. Ids returned by the solver with
// no matching graph vertex are logged and skipped, not returned as an
// error.
func (m *Mapper) Optimize() error {
	if m.solver == nil {
		return ErrNoSolver
	}
	if err := m.solver.Compute(); err != nil {
		return err
	}
	m.optimized = true

	for _, c := range m.solver.Corrections() {
		if !m.graph.SetCorrectedPose(c.ID, c.Pose) {
			m.log.Error().Uint64("vertex", uint64(c.ID)).Msg("vertex with this id does not exist")
		}
	}
	return nil
}
