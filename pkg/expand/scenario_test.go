package expand

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tssouza/cnpjgraph/pkg/enrich"
	"github.com/tssouza/cnpjgraph/pkg/identity"
	"github.com/tssouza/cnpjgraph/pkg/store"
)

// Reference-snapshot traversal over real SQLite stores, end to end through
// the engine and the document builder.

func snapshotDB(t *testing.T, name string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "stmt: %s", stmt)
	}
	return path
}

func snapshotEngine(t *testing.T) *Engine {
	t.Helper()

	registry, err := store.OpenRegistry(snapshotDB(t, "cnpj.db",
		`CREATE TABLE estabelecimento (cnpj TEXT, cnpj_basico TEXT, matriz_filial TEXT,
			nome_fantasia TEXT, situacao_cadastral TEXT, data_inicio_atividades TEXT,
			cnae_fiscal TEXT, uf TEXT, municipio TEXT)`,
		`CREATE TABLE empresas (cnpj_basico TEXT, razao_social TEXT, natureza_juridica TEXT)`,
		`CREATE TABLE socios (cnpj TEXT, cnpj_cpf_socio TEXT, nome_socio TEXT, qualificacao_socio TEXT)`,
		`CREATE TABLE municipio (codigo TEXT, descricao TEXT)`,
		`CREATE TABLE cnae (codigo TEXT, descricao TEXT)`,
		`CREATE TABLE natureza_juridica (codigo TEXT, descricao TEXT)`,
		`CREATE TABLE qualificacao_socio (codigo TEXT, descricao TEXT)`,
		`INSERT INTO empresas VALUES ('00000000', 'NORMAL INC', '2062')`,
		`INSERT INTO estabelecimento VALUES ('00000000000001', '00000000', '1', '',
			'02', '20000101', '1234567', 'SP', '3550308')`,
		`INSERT INTO socios VALUES ('00000000000001', '11122233344', 'SOCIO SANCIONADO', '49')`,
		`INSERT INTO municipio VALUES ('3550308', 'SAO PAULO')`,
		`INSERT INTO cnae VALUES ('1234567', 'CNAE TESTE')`,
		`INSERT INTO natureza_juridica VALUES ('2062', 'SOCIEDADE EMPRESARIA LIMITADA')`,
		`INSERT INTO qualificacao_socio VALUES ('49', 'SOCIO-ADMINISTRADOR')`,
	))
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })

	links, err := store.OpenLinks(snapshotDB(t, "rede.db",
		`CREATE TABLE ligacao (id1 TEXT, id2 TEXT, descricao TEXT)`,
		`INSERT INTO ligacao VALUES ('PJ_00000000000001', 'PF_11122233344-SOCIO SANCIONADO', 'socio')`,
	))
	require.NoError(t, err)
	t.Cleanup(func() { links.Close() })

	sanctions, err := store.OpenSanctions(snapshotDB(t, "dados_externos.db",
		`CREATE TABLE cnep (cnpj TEXT, sancao TEXT, orgao TEXT, data_inicio TEXT, data_final TEXT)`,
		`CREATE TABLE ceis (cnpj TEXT, sancao TEXT, orgao TEXT, data_inicio TEXT, data_final TEXT)`,
		`CREATE TABLE correcionais (cpf TEXT, nome TEXT, sancao TEXT, orgao TEXT, data_inicio TEXT, data_final TEXT)`,
		`INSERT INTO correcionais VALUES ('11122233344', 'SOCIO SANCIONADO', 'DEMISSAO', 'Orgao Correcional', '20230301', '')`,
	))
	require.NoError(t, err)
	t.Cleanup(func() { sanctions.Close() })

	dicts, err := registry.LoadDictionaries(context.Background())
	require.NoError(t, err)

	pipeline := enrich.NewPipeline(sanctions, []store.SourceSpec{
		{Name: "cnep", Table: "cnep", IDColumn: "cnpj"},
		{Name: "ceis", Table: "ceis", IDColumn: "cnpj"},
		{Name: "correcional", Table: "correcionais", IDColumn: "cpf"},
	}, 0, nil)

	return NewEngine(links, enrich.NewAttributeFetcher(registry, dicts), pipeline,
		Budget{MaxLayers: 10})
}

func TestExpandAgainstSnapshotStores(t *testing.T) {
	engine := snapshotEngine(t)

	result, err := engine.Expand(context.Background(),
		[]identity.Key{identity.CompanyKey("00000000000001")}, 1)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	doc := BuildDocument(result)
	require.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Edges, 1)

	company := doc.Nodes[0]
	assert.Equal(t, "PJ_00000000000001", company.ID)
	assert.Equal(t, "NORMAL INC", company.Label)
	assert.Equal(t, 0, company.Layer)
	assert.Equal(t, "SAO PAULO", company.Attributes["municipio"])
	assert.Equal(t, "SOCIEDADE EMPRESARIA LIMITADA", company.Attributes["natureza_juridica"])
	_, flagged := company.Flags["cnep"]
	assert.False(t, flagged, "clean company carries no sanction key")
	_, flagged = company.Flags["ceis"]
	assert.False(t, flagged)

	person := doc.Nodes[1]
	assert.Equal(t, "PF_11122233344-SOCIO SANCIONADO", person.ID)
	assert.Equal(t, 1, person.Layer)
	assert.Equal(t, "SOCIO-ADMINISTRADOR", person.Attributes["qualificacao"])
	require.Contains(t, person.Flags, "correcional")
	assert.Contains(t, person.Flags["correcional"], "DEMISSAO")
	assert.Contains(t, person.Flags["correcional"], "Orgao Correcional")

	assert.Equal(t, DocumentEdge{
		From:     "PJ_00000000000001",
		To:       "PF_11122233344-SOCIO SANCIONADO",
		Relation: "socio",
	}, doc.Edges[0])
}

func TestExpandSnapshotIdempotence(t *testing.T) {
	engine := snapshotEngine(t)
	seed := []identity.Key{identity.CompanyKey("00000000000001")}

	first, err := engine.Expand(context.Background(), seed, 2)
	require.NoError(t, err)
	second, err := engine.Expand(context.Background(), seed, 2)
	require.NoError(t, err)

	assert.Equal(t, BuildDocument(first), BuildDocument(second))
}
