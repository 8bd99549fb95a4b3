package fusion

import (
	"fmt"

	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

// DefaultRRFK is the standard reciprocal rank fusion constant. It damps the
// gap between adjacent top ranks so one backend cannot dominate the blend.
const DefaultRRFK = 60

// Strategy turns a hit's per-backend ranks into one fused score.
// Higher is better. Scores are only compared within a single fuse pass.
type Strategy interface {
	Name() string
	Score(ranks map[types.Backend]int) float64
}

// RRFStrategy implements reciprocal rank fusion: each contributing backend
// adds 1/(K+rank).
type RRFStrategy struct {
	K int
}

// NewRRF creates an RRF strategy; k <= 0 takes the default
func NewRRF(k int) *RRFStrategy {
	if k <= 0 {
		k = DefaultRRFK
	}
	return &RRFStrategy{K: k}
}

func (s *RRFStrategy) Name() string { return "rrf" }

func (s *RRFStrategy) Score(ranks map[types.Backend]int) float64 {
	score := 0.0
	for _, rank := range ranks {
		score += 1.0 / float64(s.K+rank)
	}
	return score
}

// WeightedStrategy is RRF with per-backend weights, for indexes where one
// backend is known to be better curated than the others.
type WeightedStrategy struct {
	K       int
	Weights map[types.Backend]float64
}

// NewWeighted creates a weighted strategy; missing weights default to 1
func NewWeighted(k int, weights map[types.Backend]float64) *WeightedStrategy {
	if k <= 0 {
		k = DefaultRRFK
	}
	return &WeightedStrategy{K: k, Weights: weights}
}

func (s *WeightedStrategy) Name() string { return "weighted" }

func (s *WeightedStrategy) Score(ranks map[types.Backend]int) float64 {
	score := 0.0
	for backend, rank := range ranks {
		weight, ok := s.Weights[backend]
		if !ok {
			weight = 1.0
		}
		score += weight / float64(s.K+rank)
	}
	return score
}

// InterleaveStrategy orders by the best single-backend rank; multi-source
// hits win ties through the engine's source-count tie-break.
type InterleaveStrategy struct{}

func (s *InterleaveStrategy) Name() string { return "interleave" }

func (s *InterleaveStrategy) Score(ranks map[types.Backend]int) float64 {
	best := 0
	for _, rank := range ranks {
		if best == 0 || rank < best {
			best = rank
		}
	}
	if best == 0 {
		return 0
	}
	return 1.0 / float64(best)
}

// NewStrategy builds a strategy by name. Empty name means RRF.
func NewStrategy(name string, k int, weights map[types.Backend]float64) (Strategy, error) {
	switch name {
	case "", "rrf":
		return NewRRF(k), nil
	case "weighted":
		return NewWeighted(k, weights), nil
	case "interleave":
		return &InterleaveStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown fusion strategy %q", name)
	}
}
