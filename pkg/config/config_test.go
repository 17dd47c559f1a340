package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
databases:
  registry: /data/cnpj.db
  links: /data/rede.db
  sanctions: /data/dados_externos.db
`))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxLayers, cfg.Traversal.MaxLayers)
	assert.Equal(t, DefaultMaxRecordsPerLayer, cfg.Traversal.MaxRecordsPerLayer)
	assert.Equal(t, DefaultWorkers, cfg.Traversal.Workers)
	assert.Equal(t, "mutex", cfg.Traversal.Lock)
	assert.Equal(t, DefaultMaxPayloadLen, cfg.Sanctions.MaxPayloadLen)
	assert.Equal(t, DefaultSources(), cfg.Sanctions.Sources)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Traversal.BranchBridging)
}

func TestParseExplicitValues(t *testing.T) {
	cfg, err := Parse([]byte(`
databases:
  registry: cnpj.db
traversal:
  max_layers: 3
  max_records_per_layer: 50
  max_query_seconds: 2
  branch_bridging: true
  lock: none
sanctions:
  max_payload_len: 120
  sources:
    - name: cnep
      table: cnep
      id_column: cnpj
    - name: pep
      table: pep
      id_column: cpf
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Traversal.MaxLayers)
	assert.Equal(t, 50, cfg.Traversal.MaxRecordsPerLayer)
	assert.True(t, cfg.Traversal.BranchBridging)
	assert.Equal(t, "none", cfg.Traversal.Lock)
	assert.Len(t, cfg.Sanctions.Sources, 2)
	assert.Equal(t, "pep", cfg.Sanctions.Sources[1].Name)
}

func TestParseRejectsMissingRegistry(t *testing.T) {
	_, err := Parse([]byte(`
databases:
  links: rede.db
`))
	assert.Error(t, err)
}

func TestParseRejectsBadLogLevel(t *testing.T) {
	_, err := Parse([]byte(`
databases:
  registry: cnpj.db
log_level: loud
`))
	assert.Error(t, err)
}

func TestParseRejectsDuplicateSources(t *testing.T) {
	_, err := Parse([]byte(`
databases:
  registry: cnpj.db
sanctions:
  sources:
    - {name: cnep, table: cnep, id_column: cnpj}
    - {name: cnep, table: cnep2, id_column: cnpj}
`))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cnpjgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("databases:\n  registry: cnpj.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cnpj.db", cfg.Databases.Registry)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
