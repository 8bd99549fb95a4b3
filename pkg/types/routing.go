package types

// Strategy names a routing decision for a query
type Strategy string

const (
	StrategyGraph        Strategy = "graph"
	StrategyVector       Strategy = "vector"
	StrategyUnified      Strategy = "unified"
	StrategyTripleVector Strategy = "triplestore+vector"
)

// Backends returns the backend set a strategy selects, in deterministic order
func (s Strategy) Backends() []Backend {
	switch s {
	case StrategyGraph:
		return []Backend{BackendGraph}
	case StrategyVector:
		return []Backend{BackendVector}
	case StrategyTripleVector:
		return []Backend{BackendTripleStore, BackendVector}
	case StrategyUnified:
		return []Backend{BackendGraph, BackendVector}
	default:
		return nil
	}
}

// Valid reports whether the strategy is a known routing target
func (s Strategy) Valid() bool {
	switch s {
	case StrategyGraph, StrategyVector, StrategyUnified, StrategyTripleVector:
		return true
	}
	return false
}

// RoutingDecision is the classifier output for a single query.
// It is produced per-query and never persisted.
type RoutingDecision struct {
	Strategy         Strategy
	DetectedEntities []string // Ordered by match strength, may be empty
	Confidence       float64  // Normalized to [0, 1]
	Degraded         bool     // True when the entity index was unavailable
}
