package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dealflow/internal/analytics"
	"dealflow/internal/config"
	"dealflow/internal/source"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Loader fetches the current export.
type Loader func(ctx context.Context) (*source.Table, error)

// Server exposes pipeline analytics as MCP tools. The export is loaded on the
// first tool call and cached until reload_source is called, unless the
// configuration asks for a reload on every call.
type Server struct {
	cfg     *config.AppConfig
	version string
	load    Loader
	engine  *analytics.Engine

	mu       sync.Mutex
	result   *analytics.Result
	rows     int
	loadedAt time.Time
}

// NewServer creates a server reading the configured source.
func NewServer(cfg *config.AppConfig, version string) *Server {
	return newServer(cfg, version, func(ctx context.Context) (*source.Table, error) {
		return source.Load(ctx, cfg.Source)
	})
}

func newServer(cfg *config.AppConfig, version string, load Loader) *Server {
	return &Server{
		cfg:     cfg,
		version: version,
		load:    load,
		engine:  analytics.NewEngine(cfg.Fields).WithMonthsBack(cfg.MonthsBack),
	}
}

// Run serves the tools over stdio until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	srv := sdk.NewServer(&sdk.Implementation{Name: "dealflow", Version: s.version}, nil)
	if err := s.registerTools(srv); err != nil {
		return err
	}
	log.Info().Str("version", s.version).Msg("MCP server listening on stdio")
	return srv.Run(ctx, &sdk.StdioTransport{})
}

// current returns the cached result, loading the export when needed.
func (s *Server) current(ctx context.Context) (*analytics.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil && !s.cfg.AlwaysReload {
		return s.result, nil
	}
	return s.reloadLocked(ctx)
}

// reload discards the cached result and reads the export again.
func (s *Server) reload(ctx context.Context) (*analytics.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *Server) reloadLocked(ctx context.Context) (*analytics.Result, error) {
	start := time.Now()
	table, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Compute(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to compute pipeline analytics: %w", err)
	}

	s.result = res
	s.rows = table.Len()
	s.loadedAt = time.Now()
	log.Info().
		Str("runId", res.RunID).
		Int("rows", s.rows).
		Dur("elapsed", time.Since(start)).
		Msg("Export loaded")
	return res, nil
}
