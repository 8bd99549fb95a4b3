package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tallgrass-ai/kbsearch-mcp/internal/storage"
	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeNoBackendAvailable = -32001 // Every selected backend was down or open
	ErrorCodeTimeout            = -32002 // Request deadline exceeded
)

// handleSearchKnowledge handles the search_knowledge tool invocation
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	// Out-of-range limits are clamped, not rejected; the pipeline maps
	// non-positive values to the default and caps at the maximum.
	opts := types.SearchOptions{Limit: getIntDefault(args, "limit", types.DefaultLimit)}

	if strategy := getStringDefault(args, "strategy", ""); strategy != "" {
		opts.PreferredStrategy = types.Strategy(strategy)
		if !opts.PreferredStrategy.Valid() {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid strategy", map[string]interface{}{
				"param":   "strategy",
				"value":   strategy,
				"allowed": []string{"graph", "vector", "unified", "triplestore+vector"},
			})
		}
	}

	if filters, ok := args["filters"].(map[string]interface{}); ok {
		opts.Filters = &types.SearchFilters{
			Source:         getStringDefault(filters, "source", ""),
			PublishedFrom:  getStringDefault(filters, "published_from", ""),
			PublishedTo:    getStringDefault(filters, "published_to", ""),
			IncludeUndated: getBoolDefault(filters, "include_undated", false),
		}
	}

	resp, err := s.orchestrator.Search(ctx, query, opts)
	if err != nil {
		return nil, searchError(err)
	}

	return mcp.NewToolResultText(formatJSON(searchResponseJSON(resp))), nil
}

// searchError maps pipeline errors to MCP error codes
func searchError(err error) error {
	switch {
	case errors.Is(err, types.ErrValidation):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	case errors.Is(err, types.ErrNoBackendAvailable):
		data := map[string]interface{}{}
		var nbErr *types.NoBackendAvailableError
		if errors.As(err, &nbErr) {
			attempted := make(map[string]string, len(nbErr.Attempted))
			for b, status := range nbErr.Attempted {
				attempted[string(b)] = string(status)
			}
			data["attempted"] = attempted
			data["retry_after_ms"] = nbErr.RetryAfter.Milliseconds()
		}
		return newMCPError(ErrorCodeNoBackendAvailable, "no retrieval backend available", data)
	case errors.Is(err, types.ErrTimeout):
		return newMCPError(ErrorCodeTimeout, "search deadline exceeded", nil)
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// searchResponseJSON shapes a response for the wire
func searchResponseJSON(resp *types.SearchResponse) map[string]interface{} {
	results := make([]map[string]interface{}, len(resp.Results))
	for i, hit := range resp.Results {
		sources := make([]string, len(hit.Sources))
		for j, b := range hit.Sources {
			sources[j] = string(b)
		}
		perSource := make(map[string]int, len(hit.PerSourceRank))
		for b, rank := range hit.PerSourceRank {
			perSource[string(b)] = rank
		}

		item := map[string]interface{}{
			"id":              hit.ID,
			"title":           hit.Title,
			"sources":         sources,
			"per_source_rank": perSource,
			"fused_score":     hit.FusedScore,
		}
		if hit.Content != "" {
			item["content"] = hit.Content
		}
		if hit.EntityType != "" {
			item["entity_type"] = hit.EntityType
		}
		if hit.Locator != nil {
			item["locator"] = map[string]interface{}{
				"file_path": hit.Locator.FilePath,
				"line":      hit.Locator.Line,
			}
		}
		results[i] = item
	}

	sourcesQueried := make(map[string]string, len(resp.SourcesQueried))
	for b, status := range resp.SourcesQueried {
		sourcesQueried[string(b)] = string(status)
	}

	return map[string]interface{}{
		"results":         results,
		"strategy_used":   string(resp.StrategyUsed),
		"sources_queried": sourcesQueried,
		"confidence":      resp.Confidence,
		"duration_ms":     resp.DurationMs,
		"cache_hit":       resp.CacheHit,
	}
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to collect index stats", map[string]interface{}{
			"error": err.Error(),
		})
	}

	breakers := make(map[string]string)
	for backend, state := range s.state.BreakerStates() {
		breakers[string(backend)] = state
	}

	response := map[string]interface{}{
		"index": map[string]interface{}{
			"entities_count":   stats.EntitiesCount,
			"relations_count":  stats.RelationsCount,
			"documents_count":  stats.DocumentsCount,
			"embeddings_count": stats.EmbeddingsCount,
			"index_size_mb":    fmt.Sprintf("%.2f", stats.IndexSizeMB),
		},
		"backends": map[string]interface{}{
			"circuit_states":      breakers,
			"triplestore_enabled": s.cfg.TripleStoreURL != "",
		},
		"embedder": map[string]interface{}{
			"provider":  s.embedder.Provider(),
			"model":     s.embedder.Model(),
			"dimension": s.embedder.Dimension(),
		},
		"storage": map[string]interface{}{
			"build_mode":       storage.BuildMode,
			"vector_extension": storage.VectorExtensionAvailable,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
