package api

import (
	"time"

	"github.com/tssouza/cnpjgraph/pkg/expand"
	"github.com/tssouza/cnpjgraph/pkg/identity"
	"github.com/tssouza/cnpjgraph/pkg/logging"
	"github.com/tssouza/cnpjgraph/pkg/metrics"
)

// Server is the HTTP API server: a thin surface over the expansion engine.
type Server struct {
	resolver        *identity.Resolver
	engine          *expand.Engine
	reference       map[string]string
	metricsRegistry *metrics.Registry
	logger          logging.Logger
	startTime       time.Time
	version         string
	port            int
	maxBodyBytes    int64
}

// Options carries the optional server collaborators.
type Options struct {
	Reference    map[string]string
	Metrics      *metrics.Registry
	Logger       logging.Logger
	Version      string
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 1 << 20

// NewServer creates an API server over the resolver and engine.
func NewServer(resolver *identity.Resolver, engine *expand.Engine, port int, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{
		resolver:        resolver,
		engine:          engine,
		reference:       opts.Reference,
		metricsRegistry: opts.Metrics,
		logger:          opts.Logger,
		startTime:       time.Now(),
		version:         opts.Version,
		port:            port,
		maxBodyBytes:    opts.MaxBodyBytes,
	}
}
