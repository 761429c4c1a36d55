package solver

// Metrics counts what a solve did; the service layer exports these into
// Prometheus and persists them next to the solution.
type Metrics struct {
	Sweeps         int
	Relocates      int
	Exchanges      int
	OrOpts         int
	CrossExchanges int
	JobsAdded      int
	TSPAdoptions   int

	// TotalGain is the summed gain of accepted inter-route moves; TSPGain
	// the additional savings from adopted route re-orderings.
	TotalGain int64
	TSPGain   int64
}

func (m *Metrics) countMove(op operator) {
	switch op.(type) {
	case relocate:
		m.Relocates++
	case exchange:
		m.Exchanges++
	case orOpt:
		m.OrOpts++
	case crossExchange:
		m.CrossExchanges++
	}
}

// Moves is the total number of accepted inter-route moves.
func (m *Metrics) Moves() int {
	return m.Relocates + m.Exchanges + m.OrOpts + m.CrossExchanges
}
