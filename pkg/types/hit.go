package types

import (
	"sort"
	"strconv"
	"strings"
)

// Backend identifies one of the retrieval data stores
type Backend string

const (
	BackendGraph       Backend = "graph"
	BackendVector      Backend = "vector"
	BackendTripleStore Backend = "triplestore"
)

// AllBackends lists known backends in deterministic order
var AllBackends = []Backend{BackendGraph, BackendVector, BackendTripleStore}

// Locator points at a source location for a hit
type Locator struct {
	FilePath string
	Line     int
}

// Hit represents a normalized search result from a single backend
type Hit struct {
	// Identification
	ID    string // Stable across repeated queries for the same item
	Title string

	// Content
	Content string // Optional snippet or body

	// Provenance
	Source      Backend
	BackendRank int // 1-based rank within the originating list

	// Metadata
	EntityType string   // Optional
	Locator    *Locator // Optional
	RawScore   *float64 // Backend-native score; only meaningful within a backend
}

// Validate checks hit invariants
func (h *Hit) Validate() error {
	if h.BackendRank < 1 {
		return ErrInvalidRank
	}
	if h.Source != BackendGraph && h.Source != BackendVector && h.Source != BackendTripleStore {
		return ErrUnknownBackend
	}
	if h.ID == "" && h.Title == "" {
		return ErrMissingIdentity
	}
	return nil
}

// IdentityKey returns the key used to dedupe hits across backends.
// Falls back to normalized title plus locator when the ID is absent.
func (h *Hit) IdentityKey() string {
	if h.ID != "" {
		return h.ID
	}
	key := strings.ToLower(strings.Join(strings.Fields(h.Title), " "))
	if h.Locator != nil {
		key += "|" + h.Locator.FilePath + ":" + strconv.Itoa(h.Locator.Line)
	}
	return key
}

// FusedHit is a hit enriched with cross-backend fusion data
type FusedHit struct {
	Hit

	// Sources holds every backend that produced this hit, sorted
	Sources []Backend
	// PerSourceRank maps each contributing backend to its 1-based rank
	PerSourceRank map[Backend]int
	// FusedScore is the combined score across contributing backends
	FusedScore float64
}

// BestRank returns the best (lowest) rank across contributing backends
func (f *FusedHit) BestRank() int {
	best := 0
	for _, r := range f.PerSourceRank {
		if best == 0 || r < best {
			best = r
		}
	}
	return best
}

// SortBackends orders a backend slice deterministically
func SortBackends(backends []Backend) {
	sort.Slice(backends, func(i, j int) bool { return backends[i] < backends[j] })
}
