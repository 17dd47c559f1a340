package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tssouza/cnpjgraph/pkg/api"
	"github.com/tssouza/cnpjgraph/pkg/config"
	"github.com/tssouza/cnpjgraph/pkg/enrich"
	"github.com/tssouza/cnpjgraph/pkg/expand"
	"github.com/tssouza/cnpjgraph/pkg/identity"
	"github.com/tssouza/cnpjgraph/pkg/logging"
	"github.com/tssouza/cnpjgraph/pkg/metrics"
	"github.com/tssouza/cnpjgraph/pkg/server"
	"github.com/tssouza/cnpjgraph/pkg/store"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	port := flag.Int("port", 0, "Override the configured HTTP port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cnpjgraph-server: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	ctx := context.Background()

	registry, err := store.OpenRegistry(cfg.Databases.Registry)
	if err != nil {
		fatal(logger, "opening registry database", err)
	}
	defer registry.Close()

	dicts, err := registry.LoadDictionaries(ctx)
	if err != nil {
		fatal(logger, "loading code dictionaries", err)
	}

	reference, err := registry.Reference(ctx)
	if err != nil {
		logger.Warn("snapshot reference metadata unavailable", logging.Error(err))
	} else if ref, ok := reference["referencia"]; ok {
		logger.Info("snapshot loaded", logging.String("referencia", ref))
	}

	if cfg.Databases.Links == "" {
		fatal(logger, "configuration", fmt.Errorf("databases.links is required for the server"))
	}
	links, err := store.OpenLinks(cfg.Databases.Links)
	if err != nil {
		fatal(logger, "opening link database", err)
	}
	defer links.Close()
	if cfg.Traversal.BranchBridging {
		links.EnableBranchBridging(registry)
	}

	var pipeline *enrich.Pipeline
	if cfg.Databases.Sanctions != "" {
		sanctions, err := store.OpenSanctions(cfg.Databases.Sanctions)
		if err != nil {
			fatal(logger, "opening sanctions database", err)
		}
		defer sanctions.Close()
		pipeline = enrich.NewPipeline(sanctions, sourceSpecs(cfg), cfg.Sanctions.MaxPayloadLen,
			logger.With(logging.Component("enrich")))
	} else {
		logger.Warn("no sanctions database configured, watch-list flags disabled")
	}

	reg := metrics.DefaultRegistry()
	engine := buildEngine(cfg, links, registry, dicts, pipeline, logger, reg)

	serverPort := cfg.Server.Port
	if *port != 0 {
		serverPort = *port
	}

	apiServer := api.NewServer(identity.NewResolver(registry), engine, serverPort, api.Options{
		Reference:    reference,
		Metrics:      reg,
		Logger:       logger.With(logging.Component("api")),
		Version:      version,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	gs := server.NewGracefulServer(fmt.Sprintf(":%d", serverPort), apiServer.Handler(), logger)
	if err := gs.Start(); err != nil {
		fatal(logger, "HTTP server", err)
	}
}

func buildEngine(cfg *config.Config, links *store.LinkStore, registry *store.RegistryStore,
	dicts *store.Dictionaries, pipeline *enrich.Pipeline,
	logger logging.Logger, reg *metrics.Registry) *expand.Engine {

	var flags expand.FlagSource
	if pipeline != nil {
		flags = pipeline
	}
	return expand.NewEngine(
		links,
		enrich.NewAttributeFetcher(registry, dicts),
		flags,
		expand.Budget{
			MaxLayers:          cfg.Traversal.MaxLayers,
			MaxRecordsPerLayer: cfg.Traversal.MaxRecordsPerLayer,
			Deadline:           cfg.Traversal.Deadline(),
			Workers:            cfg.Traversal.Workers,
		},
		expand.WithLogger(logger.With(logging.Component("expand"))),
		expand.WithMetrics(reg),
		expand.WithGuard(expand.NewGuard(cfg.Traversal.Lock)),
	)
}

func sourceSpecs(cfg *config.Config) []store.SourceSpec {
	specs := make([]store.SourceSpec, 0, len(cfg.Sanctions.Sources))
	for _, src := range cfg.Sanctions.Sources {
		specs = append(specs, store.SourceSpec{
			Name:     src.Name,
			Table:    src.Table,
			IDColumn: src.IDColumn,
		})
	}
	return specs
}

func fatal(logger logging.Logger, what string, err error) {
	logger.Error(what, logging.Error(err))
	os.Exit(1)
}
