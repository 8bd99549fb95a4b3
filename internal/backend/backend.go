package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/tallgrass-ai/kbsearch-mcp/internal/storage"
	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

// QueryParams carries a single backend request
type QueryParams struct {
	Query    string
	Entities []string // Entity names detected by the classifier, may be empty
	Limit    int
	Filters  *types.SearchFilters
}

// Adapter is the uniform surface every retrieval backend presents.
// Implementations return hits with 1-based BackendRank in backend order;
// they never rank across backends, that is fusion's job.
type Adapter interface {
	Name() types.Backend
	Query(ctx context.Context, params QueryParams) ([]types.Hit, error)
}

// mapTransportError translates low-level failures into the backend error
// taxonomy. Timeouts and unreachable services are distinguished because the
// circuit breaker counts them differently from malformed queries.
func mapTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", types.ErrBackendTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", types.ErrBackendTimeout, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
}

// storageFilters converts validated inbound filters to the storage layer's
// representation. Dates are assumed pre-validated as YYYY-MM-DD.
func storageFilters(f *types.SearchFilters) *storage.VectorFilters {
	if f == nil {
		return nil
	}
	sf := &storage.VectorFilters{
		Source:         f.Source,
		IncludeUndated: f.IncludeUndated,
	}
	if f.PublishedFrom != "" {
		if t, err := time.Parse("2006-01-02", f.PublishedFrom); err == nil {
			sf.PublishedFrom = &t
		}
	}
	if f.PublishedTo != "" {
		if t, err := time.Parse("2006-01-02", f.PublishedTo); err == nil {
			// Inclusive upper bound: extend to end of day
			end := t.Add(24*time.Hour - time.Nanosecond)
			sf.PublishedTo = &end
		}
	}
	return sf
}
