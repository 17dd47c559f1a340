package store

import (
	"context"
	"database/sql"

	"github.com/tssouza/cnpjgraph/pkg/identity"
)

// CompanyRow is the raw master-registry record for one establishment.
// Code columns (status, activity, municipality) are untranslated; the
// dictionaries translate them at enrichment time.
type CompanyRow struct {
	Key             identity.Key
	LegalName       string
	TradeName       string
	StatusCode      string
	ActivityCode    string
	LegalNatureCode string
	Municipality    string
	State           string
	Started         string
	IsBranch        bool
	CompanyBasico   string
}

// PartnerRow is the socios record for one natural person: display name and
// the untranslated qualification code.
type PartnerRow struct {
	Key      identity.Key
	Name     string
	RoleCode string
}

// RegistryStore reads the master entity relation (registration id to
// descriptive attributes) and serves the name index for seed resolution.
type RegistryStore struct {
	db *sql.DB
}

// OpenRegistry opens the registry snapshot read-only.
func OpenRegistry(path string) (*RegistryStore, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	return &RegistryStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *RegistryStore) Close() error {
	return s.db.Close()
}

// FetchCompanies batch-reads registry rows for the given company keys.
// Keys absent from the registry are silently omitted: a key may legitimately
// have no master record (foreign counterpart).
func (s *RegistryStore) FetchCompanies(ctx context.Context, keys []identity.Key) (map[identity.Key]CompanyRow, error) {
	ids := make([]any, 0, len(keys))
	for _, key := range keys {
		if key.Kind == identity.KindCompany {
			ids = append(ids, key.ID)
		}
	}
	out := make(map[identity.Key]CompanyRow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const op = "registry.FetchCompanies"
	q := `SELECT e.cnpj, e.cnpj_basico, e.matriz_filial, e.nome_fantasia,
	             e.situacao_cadastral, e.data_inicio_atividades, e.cnae_fiscal,
	             e.uf, e.municipio, COALESCE(em.razao_social, ''),
	             COALESCE(em.natureza_juridica, '')
	      FROM estabelecimento e
	      LEFT JOIN empresas em ON em.cnpj_basico = e.cnpj_basico
	      WHERE e.cnpj IN (` + placeholders(len(ids)) + `)`
	rows, err := ctxQuery(ctx, s.db, op, q, ids...)
	if err != nil {
		return nil, err
	}

	err = scanAll(rows, op, func() error {
		var r CompanyRow
		var cnpj, matrizFilial string
		if err := rows.Scan(&cnpj, &r.CompanyBasico, &matrizFilial, &r.TradeName,
			&r.StatusCode, &r.Started, &r.ActivityCode, &r.State, &r.Municipality,
			&r.LegalName, &r.LegalNatureCode); err != nil {
			return err
		}
		r.Key = identity.CompanyKey(cnpj)
		r.IsBranch = matrizFilial != "1"
		out[r.Key] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchPartners batch-reads socios rows for the given person keys, matched
// by tax id. Persons without a socios row (foreign counterparts, name-only
// keys) are silently omitted.
func (s *RegistryStore) FetchPartners(ctx context.Context, keys []identity.Key) (map[identity.Key]PartnerRow, error) {
	requested := make(map[string]identity.Key)
	ids := make([]any, 0, len(keys))
	for _, key := range keys {
		if key.Kind != identity.KindPerson || key.ID == "" {
			continue
		}
		if _, dup := requested[key.ID]; dup {
			continue
		}
		requested[key.ID] = key
		ids = append(ids, key.ID)
	}
	out := make(map[identity.Key]PartnerRow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const op = "registry.FetchPartners"
	q := `SELECT DISTINCT cnpj_cpf_socio, nome_socio, qualificacao_socio
	      FROM socios WHERE cnpj_cpf_socio IN (` + placeholders(len(ids)) + `)`
	rows, err := ctxQuery(ctx, s.db, op, q, ids...)
	if err != nil {
		return nil, err
	}

	err = scanAll(rows, op, func() error {
		var taxID, name, role string
		if err := rows.Scan(&taxID, &name, &role); err != nil {
			return err
		}
		key, ok := requested[taxID]
		if !ok {
			return nil
		}
		if _, dup := out[key]; !dup {
			out[key] = PartnerRow{Key: key, Name: name, RoleCode: role}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Headquarters resolves the headquarters establishment for a company key's
// 8-digit company root. Returns the zero key when no headquarters row exists.
func (s *RegistryStore) Headquarters(ctx context.Context, key identity.Key) (identity.Key, error) {
	if key.Kind != identity.KindCompany || len(key.ID) < 8 {
		return identity.Key{}, nil
	}
	const op = "registry.Headquarters"
	var cnpj string
	err := s.db.QueryRowContext(ctx,
		`SELECT cnpj FROM estabelecimento WHERE cnpj_basico = ? AND matriz_filial = '1' LIMIT 1`,
		key.ID[:8]).Scan(&cnpj)
	if err == sql.ErrNoRows {
		return identity.Key{}, nil
	}
	if err != nil {
		return identity.Key{}, queryErr(op, err)
	}
	return identity.CompanyKey(cnpj), nil
}

// LookupName implements identity.NameIndex over the registry: company legal
// names and partner person names, exact matches ranked ahead of prefix
// matches. Within each rank, registry order is preserved.
func (s *RegistryStore) LookupName(ctx context.Context, nameKey string, limit int) ([]identity.Key, error) {
	if limit <= 0 {
		limit = identity.DefaultNameMatchLimit
	}
	var exact, prefix []identity.Key
	seen := make(map[identity.Key]struct{})

	add := func(key identity.Key, isExact bool) {
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		if isExact {
			exact = append(exact, key)
		} else {
			prefix = append(prefix, key)
		}
	}

	const opCompanies = "registry.LookupName(companies)"
	q := `SELECT em.razao_social, e.cnpj
	      FROM empresas em
	      JOIN estabelecimento e ON e.cnpj_basico = em.cnpj_basico AND e.matriz_filial = '1'
	      WHERE em.razao_social LIKE ? LIMIT ?`
	rows, err := ctxQuery(ctx, s.db, opCompanies, q, nameKey+"%", limit)
	if err != nil {
		return nil, err
	}
	err = scanAll(rows, opCompanies, func() error {
		var name, cnpj string
		if err := rows.Scan(&name, &cnpj); err != nil {
			return err
		}
		add(identity.CompanyKey(cnpj), identity.NormalizeName(name) == nameKey)
		return nil
	})
	if err != nil {
		return nil, err
	}

	const opPersons = "registry.LookupName(persons)"
	q = `SELECT DISTINCT nome_socio, cnpj_cpf_socio
	     FROM socios WHERE nome_socio LIKE ? LIMIT ?`
	rows, err = ctxQuery(ctx, s.db, opPersons, q, nameKey+"%", limit)
	if err != nil {
		return nil, err
	}
	err = scanAll(rows, opPersons, func() error {
		var name, taxID string
		if err := rows.Scan(&name, &taxID); err != nil {
			return err
		}
		add(identity.PersonKey(taxID, name), identity.NormalizeName(name) == nameKey)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ranked := append(exact, prefix...)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Reference reads the snapshot metadata written by the ETL (_referencia
// table): reference date, row counts. Missing table is not an error; the
// snapshot simply carries no metadata.
func (s *RegistryStore) Reference(ctx context.Context) (map[string]string, error) {
	const op = "registry.Reference"
	out := make(map[string]string)
	rows, err := s.db.QueryContext(ctx, `SELECT referencia, valor FROM _referencia`)
	if err != nil {
		return out, nil
	}
	err = scanAll(rows, op, func() error {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		out[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
