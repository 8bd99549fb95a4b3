package classifier

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

const (
	// DefaultThreshold is the minimum trigram similarity for an entity match
	DefaultThreshold = 0.15

	// maxDetectedEntities caps how many entity names a query can carry into
	// the graph backend
	maxDetectedEntities = 5

	// degradedPenalty is subtracted from confidence when the entity index
	// could not be consulted
	degradedPenalty = 0.25

	minConfidence = 0.1
)

// EntityIndex supplies the known entity names for trigram matching
type EntityIndex interface {
	Names(ctx context.Context) ([]string, error)
}

// Config tunes classification
type Config struct {
	Threshold          float64 // 0 means DefaultThreshold
	TripleStoreEnabled bool
}

// Classifier routes queries to backend strategies. It never returns an
// error: when the entity index is unreachable it degrades to pattern-only
// classification and marks the decision accordingly.
type Classifier struct {
	index       EntityIndex
	threshold   float64
	tripleStore bool
}

// New creates a classifier over the given entity index
func New(index EntityIndex, cfg Config) *Classifier {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{
		index:       index,
		threshold:   threshold,
		tripleStore: cfg.TripleStoreEnabled,
	}
}

// Classify decides which backends should serve the query
func (c *Classifier) Classify(ctx context.Context, query string) types.RoutingDecision {
	degraded := false
	var names []string
	if c.index != nil {
		var err error
		names, err = c.index.Names(ctx)
		if err != nil {
			log.Printf("classifier: entity index unavailable, degrading: %v", err)
			degraded = true
		}
	} else {
		degraded = true
	}

	entities, topScore := c.detectEntities(query, names)

	strategy, ruleConfidence := c.route(query, entities)

	confidence := ruleConfidence
	if len(entities) > 0 {
		confidence = (ruleConfidence + topScore) / 2
	}
	if degraded {
		confidence -= degradedPenalty
	}
	if confidence < minConfidence {
		confidence = minConfidence
	}
	if confidence > 1 {
		confidence = 1
	}

	return types.RoutingDecision{
		Strategy:         strategy,
		DetectedEntities: entities,
		Confidence:       confidence,
		Degraded:         degraded,
	}
}

// route applies the lexical rules in priority order
func (c *Classifier) route(query string, entities []string) (types.Strategy, float64) {
	lower := strings.ToLower(query)

	// Relation phrasing asks for structured facts
	if c.tripleStore && hasRelationPhrasing(lower) {
		return types.StrategyTripleVector, 0.85
	}

	// Named code constructs point at the graph
	if len(entities) > 0 && hasCodeConstruct(lower) {
		return types.StrategyGraph, 0.9
	}

	// Conceptual questions without a known entity are semantic territory
	if len(entities) == 0 && isConceptual(lower) {
		return types.StrategyVector, 0.8
	}

	// Everything else fans out to both core backends
	return types.StrategyUnified, 0.6
}

type candidate struct {
	name  string
	score float64
}

// detectEntities matches query tokens against known entity names using
// trigram similarity. Returns matched names best-first plus the top score.
func (c *Classifier) detectEntities(query string, names []string) ([]string, float64) {
	if len(names) == 0 {
		return nil, 0
	}

	tokens := matchTokens(query)
	if len(tokens) == 0 {
		return nil, 0
	}

	var candidates []candidate
	for _, name := range names {
		best := 0.0
		for _, token := range tokens {
			if s := Similarity(name, token); s > best {
				best = s
			}
		}
		if best >= c.threshold {
			candidates = append(candidates, candidate{name: name, score: best})
		}
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})
	if len(candidates) > maxDetectedEntities {
		candidates = candidates[:maxDetectedEntities]
	}

	entities := make([]string, len(candidates))
	for i, cand := range candidates {
		entities[i] = cand.name
	}
	return entities, candidates[0].score
}

// Function words carry no entity signal but are short enough to clear the
// trigram threshold against real names ("the" vs "Cache" scores 0.20), so
// they must never reach similarity scoring.
var matchStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "how": true, "what": true,
	"where": true, "does": true, "are": true, "can": true, "with": true,
	"that": true, "this": true, "from": true, "into": true, "about": true,
	"why": true, "when": true, "which": true, "who": true, "use": true,
	"uses": true, "all": true, "any": true, "not": true, "has": true,
	"have": true, "was": true, "were": true, "its": true,
}

// matchTokens splits a query into candidate tokens for entity matching,
// including adjacent-token bigrams for multiword entity names. Stop words
// and sub-three-character fragments are dropped before matching.
func matchTokens(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '.', '?', '!', ';', ':', '"', '\'', '(', ')':
			return true
		}
		return false
	})

	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || matchStopWords[strings.ToLower(f)] {
			continue
		}
		kept = append(kept, f)
	}

	tokens := make([]string, 0, 2*len(kept))
	tokens = append(tokens, kept...)
	for i := 0; i+1 < len(kept); i++ {
		tokens = append(tokens, kept[i]+" "+kept[i+1])
	}
	return tokens
}

var relationPhrases = []string{
	" calls ", " call ", " uses ", " use ", " depends on ", " imports ",
	" import ", " references ", " implements ", " related to ",
	" connected to ", " contains ",
}

func hasRelationPhrasing(lower string) bool {
	padded := " " + strings.TrimRight(lower, "?!. ") + " "
	for _, phrase := range relationPhrases {
		if strings.Contains(padded, phrase) {
			return true
		}
	}
	return false
}

var codeConstructWords = []string{
	"function", "struct", "type", "interface", "method", "defined",
	"declaration", "signature", "field", "constant", "variable",
	"where is", "definition",
}

func hasCodeConstruct(lower string) bool {
	for _, w := range codeConstructWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

var conceptualWords = []string{
	"how ", "why ", "explain", "difference", "overview", "compare",
	"what is", "what are", "describe", "best way", "tradeoff",
}

func isConceptual(lower string) bool {
	for _, w := range conceptualWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
