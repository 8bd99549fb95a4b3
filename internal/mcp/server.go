package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/tallgrass-ai/kbsearch-mcp/internal/backend"
	"github.com/tallgrass-ai/kbsearch-mcp/internal/classifier"
	"github.com/tallgrass-ai/kbsearch-mcp/internal/embedder"
	"github.com/tallgrass-ai/kbsearch-mcp/internal/fusion"
	"github.com/tallgrass-ai/kbsearch-mcp/internal/orchestrator"
	"github.com/tallgrass-ai/kbsearch-mcp/internal/resilience"
	"github.com/tallgrass-ai/kbsearch-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "kbsearch-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Environment variables consulted by NewFromEnv
const (
	EnvDBPath           = "KBSEARCH_DB_PATH"
	EnvTripleStoreURL   = "KBSEARCH_TRIPLESTORE_URL"
	EnvFusionStrategy   = "KBSEARCH_FUSION_STRATEGY"
	EnvRRFK             = "KBSEARCH_RRF_K"
	EnvBreakerThreshold = "KBSEARCH_BREAKER_THRESHOLD"
	EnvBreakerCooldown  = "KBSEARCH_BREAKER_COOLDOWN"
	EnvCacheSize        = "KBSEARCH_CACHE_SIZE"
)

// Config holds server configuration
type Config struct {
	DBPath           string
	TripleStoreURL   string // Empty disables the triple-store backend
	FusionStrategy   string // rrf, weighted, interleave; empty means rrf
	RRFK             int
	BreakerThreshold int
	BreakerCooldown  time.Duration
	CacheSize        int
}

// ConfigFromEnv builds a Config from environment variables
func ConfigFromEnv() Config {
	cfg := Config{
		DBPath:         os.Getenv(EnvDBPath),
		TripleStoreURL: os.Getenv(EnvTripleStoreURL),
		FusionStrategy: os.Getenv(EnvFusionStrategy),
	}
	if v, err := strconv.Atoi(os.Getenv(EnvRRFK)); err == nil {
		cfg.RRFK = v
	}
	if v, err := strconv.Atoi(os.Getenv(EnvBreakerThreshold)); err == nil {
		cfg.BreakerThreshold = v
	}
	if d, err := time.ParseDuration(os.Getenv(EnvBreakerCooldown)); err == nil {
		cfg.BreakerCooldown = d
	}
	if v, err := strconv.Atoi(os.Getenv(EnvCacheSize)); err == nil {
		cfg.CacheSize = v
	}
	return cfg
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp          *server.MCPServer
	store        storage.Store
	embedder     embedder.Embedder
	orchestrator *orchestrator.Orchestrator
	state        *resilience.State
	cfg          Config
}

// storeIndex exposes the store's entity names to the classifier
type storeIndex struct {
	store storage.Store
}

func (s *storeIndex) Names(ctx context.Context) ([]string, error) {
	return s.store.EntityNames(ctx, 0)
}

// NewServer creates a new MCP server instance
func NewServer(cfg Config) (*Server, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".kbsearch", "index.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	adapters := []backend.Adapter{
		backend.NewGraphAdapter(store),
		backend.NewVectorAdapter(store, emb),
	}
	if cfg.TripleStoreURL != "" {
		adapters = append(adapters, backend.NewTripleStoreAdapter(cfg.TripleStoreURL, nil))
	}

	strategy, err := fusion.NewStrategy(cfg.FusionStrategy, cfg.RRFK, nil)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	state := resilience.NewState(resilience.Config{
		FailureThreshold: cfg.BreakerThreshold,
		Cooldown:         cfg.BreakerCooldown,
		CacheSize:        cfg.CacheSize,
	})

	cls := classifier.New(&storeIndex{store: store}, classifier.Config{
		TripleStoreEnabled: cfg.TripleStoreURL != "",
	})

	orch := orchestrator.New(adapters, cls, fusion.NewEngine(strategy), state, orchestrator.Config{})

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:          mcpServer,
		store:        store,
		embedder:     emb,
		orchestrator: orch,
		state:        state,
		cfg:          cfg,
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.embedder.Close()
		_ = s.store.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchKnowledgeTool(), s.handleSearchKnowledge)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
