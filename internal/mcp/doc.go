// Package mcp implements the Model Context Protocol (MCP) server for the
// knowledge-base search engine.
//
// The server exposes two tools to AI coding assistants:
//   - search_knowledge: Answer questions about the indexed codebase using
//     hybrid graph, vector, and triple-store retrieval
//   - get_status: Report index statistics, circuit states, and embedder
//     configuration
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// stdout is reserved for protocol traffic; all logging goes to stderr.
//
// # Tool: search_knowledge
//
//	Request:
//	{
//	  "name": "search_knowledge",
//	  "arguments": {
//	    "query": "what calls ParseConfig",
//	    "limit": 10,
//	    "filters": {
//	      "source": "docs",
//	      "published_from": "2025-01-01",
//	      "include_undated": true
//	    }
//	  }
//	}
//
//	Response:
//	{
//	  "results": [
//	    {
//	      "id": "ent:parseconfig",
//	      "title": "ParseConfig",
//	      "sources": ["graph", "vector"],
//	      "per_source_rank": {"graph": 1, "vector": 3},
//	      "fused_score": 0.0322,
//	      "locator": {"file_path": "internal/config/config.go", "line": 41}
//	    }
//	  ],
//	  "strategy_used": "unified",
//	  "sources_queried": {"graph": "ok", "vector": "ok"},
//	  "confidence": 0.92,
//	  "duration_ms": 48,
//	  "cache_hit": false
//	}
//
// An empty results list is a valid answer, not an error; the query simply
// matched nothing.
//
// # Error Handling
//
// Error codes:
//   - -32602: Invalid params (empty query, bad limit, malformed dates)
//   - -32603: Internal error
//   - -32001: No retrieval backend available (data includes per-backend
//     status and a retry_after_ms hint)
//   - -32002: Search deadline exceeded
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "kbsearch": {
//	      "command": "/usr/local/bin/kbsearch",
//	      "args": ["serve"],
//	      "env": {
//	        "KBSEARCH_DB_PATH": "/data/index.db",
//	        "KBSEARCH_EMBEDDING_PROVIDER": "ollama"
//	      }
//	    }
//	  }
//	}
package mcp
