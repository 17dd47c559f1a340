package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// The fixture databases reproduce the reference snapshot: one clean company
// (00000000000001) with a sanctioned partner, one CNEP-sanctioned company
// (11111111000111), and one CEIS-sanctioned company (22222222000122).

func execAll(t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "stmt: %s", stmt)
	}
}

func createDB(t *testing.T, path string, stmts ...string) string {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	execAll(t, db, stmts...)
	return path
}

func registryFixture(t *testing.T) string {
	t.Helper()
	return createDB(t, filepath.Join(t.TempDir(), "cnpj.db"),
		`CREATE TABLE estabelecimento (cnpj TEXT, cnpj_basico TEXT, matriz_filial TEXT,
			nome_fantasia TEXT, situacao_cadastral TEXT, data_inicio_atividades TEXT,
			cnae_fiscal TEXT, uf TEXT, municipio TEXT)`,
		`CREATE TABLE empresas (cnpj_basico TEXT, razao_social TEXT, natureza_juridica TEXT,
			capital_social REAL, porte_empresa TEXT)`,
		`CREATE TABLE socios (cnpj TEXT, cnpj_cpf_socio TEXT, nome_socio TEXT, qualificacao_socio TEXT)`,
		`CREATE TABLE municipio (codigo TEXT, descricao TEXT)`,
		`CREATE TABLE cnae (codigo TEXT, descricao TEXT)`,
		`CREATE TABLE natureza_juridica (codigo TEXT, descricao TEXT)`,
		`CREATE TABLE qualificacao_socio (codigo TEXT, descricao TEXT)`,
		`CREATE TABLE _referencia (referencia TEXT, valor TEXT)`,

		`INSERT INTO empresas VALUES ('00000000', 'NORMAL INC', '2062', 1000, '05')`,
		`INSERT INTO estabelecimento VALUES ('00000000000001', '00000000', '1', 'FANTASIA NORMAL',
			'02', '20000101', '1234567', 'SP', '3550308')`,
		`INSERT INTO estabelecimento VALUES ('00000000000102', '00000000', '2', 'FILIAL NORMAL',
			'02', '20050101', '1234567', 'RJ', '3304557')`,

		`INSERT INTO empresas VALUES ('11111111', 'CNEP CORP', '2062', 2000, '05')`,
		`INSERT INTO estabelecimento VALUES ('11111111000111', '11111111', '1', 'FANTASIA CNEP',
			'02', '20010101', '1234567', 'RJ', '3304557')`,

		`INSERT INTO empresas VALUES ('22222222', 'CEIS SA', '2062', 3000, '05')`,
		`INSERT INTO estabelecimento VALUES ('22222222000122', '22222222', '1', 'FANTASIA CEIS',
			'02', '20020101', '1234567', 'MG', '3106200')`,

		`INSERT INTO socios VALUES ('00000000000001', '11122233344', 'SOCIO SANCIONADO', '49')`,

		`INSERT INTO municipio VALUES ('3550308', 'SAO PAULO')`,
		`INSERT INTO municipio VALUES ('3304557', 'RIO DE JANEIRO')`,
		`INSERT INTO municipio VALUES ('3106200', 'BELO HORIZONTE')`,
		`INSERT INTO cnae VALUES ('1234567', 'CNAE TESTE')`,
		`INSERT INTO natureza_juridica VALUES ('2062', 'SOCIEDADE EMPRESARIA LIMITADA')`,
		`INSERT INTO qualificacao_socio VALUES ('49', 'SOCIO-ADMINISTRADOR')`,
		`INSERT INTO _referencia VALUES ('CNPJ', '2024-01-01')`,
		`INSERT INTO _referencia VALUES ('cnpj_qtde', '100')`,
	)
}

func linkFixture(t *testing.T, extraRows ...string) string {
	t.Helper()
	stmts := []string{
		`CREATE TABLE ligacao (id1 TEXT, id2 TEXT, descricao TEXT)`,
		`INSERT INTO ligacao VALUES ('PJ_00000000000001', 'PF_11122233344-SOCIO SANCIONADO', 'socio')`,
	}
	stmts = append(stmts, extraRows...)
	return createDB(t, filepath.Join(t.TempDir(), "rede.db"), stmts...)
}

func sanctionFixture(t *testing.T) string {
	t.Helper()
	return createDB(t, filepath.Join(t.TempDir(), "dados_externos.db"),
		`CREATE TABLE cnep (cnpj TEXT, sancao TEXT, orgao TEXT, data_inicio TEXT, data_final TEXT)`,
		`CREATE TABLE ceis (cnpj TEXT, sancao TEXT, orgao TEXT, data_inicio TEXT, data_final TEXT)`,
		`CREATE TABLE correcionais (cpf TEXT, nome TEXT, sancao TEXT, orgao TEXT, data_inicio TEXT, data_final TEXT)`,

		`INSERT INTO cnep VALUES ('11111111000111', 'Suspensão', 'Orgao CNEP', '20230101', '20240101')`,
		`INSERT INTO ceis VALUES ('22222222000122', 'Multa', 'Orgao CEIS', '20230201', '20240201')`,
		`INSERT INTO correcionais VALUES ('11122233344', 'SOCIO SANCIONADO', 'DEMISSAO', 'Orgao Correcional', '20230301', '')`,
	)
}

func openRegistryFixture(t *testing.T) *RegistryStore {
	t.Helper()
	s, err := OpenRegistry(registryFixture(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openLinkFixture(t *testing.T, extraRows ...string) *LinkStore {
	t.Helper()
	s, err := OpenLinks(linkFixture(t, extraRows...))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openSanctionFixture(t *testing.T) *SanctionStore {
	t.Helper()
	s, err := OpenSanctions(sanctionFixture(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
