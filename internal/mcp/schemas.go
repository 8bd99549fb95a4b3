package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchKnowledgeTool returns the tool definition for search_knowledge
func searchKnowledgeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_knowledge",
		Description: "Answer questions about the indexed codebase and its documents using hybrid graph, vector, and triple-store retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question or keyword query (max 500 characters)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-50)",
					"default":     10,
					"minimum":     1,
					"maximum":     50,
				},
				"strategy": map[string]interface{}{
					"type":        "string",
					"description": "Force a retrieval strategy instead of automatic classification",
					"enum":        []string{"graph", "vector", "unified", "triplestore+vector"},
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Optional filters to narrow document results",
					"properties": map[string]interface{}{
						"source": map[string]interface{}{
							"type":        "string",
							"description": "Restrict to a single knowledge source",
						},
						"published_from": map[string]interface{}{
							"type":        "string",
							"description": "Earliest publication date, inclusive (YYYY-MM-DD)",
						},
						"published_to": map[string]interface{}{
							"type":        "string",
							"description": "Latest publication date, inclusive (YYYY-MM-DD)",
						},
						"include_undated": map[string]interface{}{
							"type":        "boolean",
							"description": "Keep items without a publication date when a date range is set",
							"default":     false,
						},
					},
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics, backend circuit states, and embedder configuration",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
