// Command cnpjgraph runs one traversal from the command line and writes the
// graph document to stdout, mirroring the server's POST /graph semantics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tssouza/cnpjgraph/pkg/config"
	"github.com/tssouza/cnpjgraph/pkg/enrich"
	"github.com/tssouza/cnpjgraph/pkg/expand"
	"github.com/tssouza/cnpjgraph/pkg/identity"
	"github.com/tssouza/cnpjgraph/pkg/logging"
	"github.com/tssouza/cnpjgraph/pkg/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	ids := flag.String("i", "", "Seed identifiers, ';'-separated (CNPJ, CPF, PJ_/PF_ ids, or name fragments)")
	layers := flag.Int("c", 1, "Number of expansion layers")
	flag.Parse()

	if *ids == "" {
		fmt.Fprintln(os.Stderr, "usage: cnpjgraph -i <id[;id...]> [-c layers] [-config file]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}

	// Diagnostics go to stderr so stdout stays pure JSON.
	logger := logging.NewJSONLogger(os.Stderr, logging.WarnLevel)
	ctx := context.Background()

	registry, err := store.OpenRegistry(cfg.Databases.Registry)
	if err != nil {
		fail(err)
	}
	defer registry.Close()

	dicts, err := registry.LoadDictionaries(ctx)
	if err != nil {
		fail(err)
	}

	if cfg.Databases.Links == "" {
		fail(fmt.Errorf("databases.links is required"))
	}
	links, err := store.OpenLinks(cfg.Databases.Links)
	if err != nil {
		fail(err)
	}
	defer links.Close()
	if cfg.Traversal.BranchBridging {
		links.EnableBranchBridging(registry)
	}

	var flagSource expand.FlagSource
	if cfg.Databases.Sanctions != "" {
		sanctions, err := store.OpenSanctions(cfg.Databases.Sanctions)
		if err != nil {
			fail(err)
		}
		defer sanctions.Close()
		specs := make([]store.SourceSpec, 0, len(cfg.Sanctions.Sources))
		for _, src := range cfg.Sanctions.Sources {
			specs = append(specs, store.SourceSpec{Name: src.Name, Table: src.Table, IDColumn: src.IDColumn})
		}
		flagSource = enrich.NewPipeline(sanctions, specs, cfg.Sanctions.MaxPayloadLen, logger)
	}

	engine := expand.NewEngine(
		links,
		enrich.NewAttributeFetcher(registry, dicts),
		flagSource,
		expand.Budget{
			MaxLayers:          cfg.Traversal.MaxLayers,
			MaxRecordsPerLayer: cfg.Traversal.MaxRecordsPerLayer,
			Deadline:           cfg.Traversal.Deadline(),
			Workers:            cfg.Traversal.Workers,
		},
		expand.WithLogger(logger),
		expand.WithGuard(expand.NewGuard(cfg.Traversal.Lock)),
	)

	resolver := identity.NewResolver(registry)
	var tokens []string
	for _, tok := range strings.Split(*ids, ";") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}

	seeds, seedErrs := resolver.ResolveAll(ctx, tokens)
	var warnings []string
	for _, err := range seedErrs {
		warnings = append(warnings, err.Error())
	}
	if len(seeds) == 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, w)
		}
		fail(fmt.Errorf("no valid seed identifiers"))
	}

	result, err := engine.Expand(ctx, seeds, *layers)
	if err != nil {
		fail(err)
	}
	result.Warnings = append(warnings, result.Warnings...)

	out, err := json.MarshalIndent(expand.BuildDocument(result), "", "  ")
	if err != nil {
		fail(err)
	}
	fmt.Println(string(out))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "cnpjgraph: %v\n", err)
	os.Exit(1)
}
