package types

import (
	"fmt"
	"time"
)

const (
	// MaxQueryLength bounds inbound query text
	MaxQueryLength = 500
	// MaxLimit bounds the number of returned results
	MaxLimit = 50
	// DefaultLimit is used when no limit is requested
	DefaultLimit = 10

	dateLayout = "2006-01-02"
)

// SearchFilters narrows results before fusion
type SearchFilters struct {
	Source         string // Restrict to a single knowledge source
	PublishedFrom  string // YYYY-MM-DD, inclusive
	PublishedTo    string // YYYY-MM-DD, inclusive
	IncludeUndated bool   // Keep items with no publication date
}

// Validate checks filter formats; date filters must be YYYY-MM-DD
func (f *SearchFilters) Validate() error {
	if f == nil {
		return nil
	}
	if f.PublishedFrom != "" {
		if _, err := time.Parse(dateLayout, f.PublishedFrom); err != nil {
			return fmt.Errorf("%w: published_from must be YYYY-MM-DD", ErrValidation)
		}
	}
	if f.PublishedTo != "" {
		if _, err := time.Parse(dateLayout, f.PublishedTo); err != nil {
			return fmt.Errorf("%w: published_to must be YYYY-MM-DD", ErrValidation)
		}
	}
	return nil
}

// Key returns a stable string form for cache hashing
func (f *SearchFilters) Key() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%s|%s|%s|%t", f.Source, f.PublishedFrom, f.PublishedTo, f.IncludeUndated)
}

// SearchOptions configures a single search request
type SearchOptions struct {
	Limit             int
	Filters           *SearchFilters
	PreferredStrategy Strategy // Optional; bypasses classification when set
}

// SourceStatus describes what happened to one backend during a search
type SourceStatus string

const (
	SourceOK          SourceStatus = "ok"
	SourceTimedOut    SourceStatus = "timed_out"
	SourceUnavailable SourceStatus = "unavailable"
	SourceCircuitOpen SourceStatus = "circuit_open"
	SourceQueryError  SourceStatus = "query_error"
)

// SearchResponse is the ordered fused result list plus request metadata
type SearchResponse struct {
	Results        []FusedHit
	StrategyUsed   Strategy
	SourcesQueried map[Backend]SourceStatus
	Confidence     float64
	DurationMs     int64
	CacheHit       bool
}

// Clone returns a deep copy so cached responses cannot be mutated by callers
func (r *SearchResponse) Clone() *SearchResponse {
	if r == nil {
		return nil
	}
	dst := &SearchResponse{
		Results:      make([]FusedHit, len(r.Results)),
		StrategyUsed: r.StrategyUsed,
		Confidence:   r.Confidence,
		DurationMs:   r.DurationMs,
		CacheHit:     r.CacheHit,
	}
	if r.SourcesQueried != nil {
		dst.SourcesQueried = make(map[Backend]SourceStatus, len(r.SourcesQueried))
		for b, s := range r.SourcesQueried {
			dst.SourcesQueried[b] = s
		}
	}
	for i, fh := range r.Results {
		cp := fh
		cp.Sources = append([]Backend(nil), fh.Sources...)
		if fh.PerSourceRank != nil {
			cp.PerSourceRank = make(map[Backend]int, len(fh.PerSourceRank))
			for b, rank := range fh.PerSourceRank {
				cp.PerSourceRank[b] = rank
			}
		}
		if fh.Locator != nil {
			loc := *fh.Locator
			cp.Locator = &loc
		}
		if fh.RawScore != nil {
			score := *fh.RawScore
			cp.RawScore = &score
		}
		dst.Results[i] = cp
	}
	return dst
}
