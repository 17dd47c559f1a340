// Package enrich attaches descriptive attributes and watch-list flags to
// batches of canonical keys. Both fetchers are batched so one BFS round costs
// a constant number of queries per backing relation.
package enrich

import (
	"context"

	"github.com/tssouza/cnpjgraph/pkg/identity"
	"github.com/tssouza/cnpjgraph/pkg/store"
)

// Attributes is the descriptive payload for one entity. Fields hold the
// translated registry columns that end up on the serialized node.
type Attributes struct {
	Label  string
	Fields map[string]string
}

// AttributeFetcher batch-reads master-registry attributes, translating code
// columns through the immutable dictionaries built at process start.
type AttributeFetcher struct {
	registry *store.RegistryStore
	dicts    *store.Dictionaries
}

// NewAttributeFetcher wires the fetcher to its backing registry. The
// dictionaries may be nil, in which case raw codes pass through.
func NewAttributeFetcher(registry *store.RegistryStore, dicts *store.Dictionaries) *AttributeFetcher {
	return &AttributeFetcher{registry: registry, dicts: dicts}
}

// Fetch returns attribute records for the keys that have a master-registry
// row. Keys without one (persons, foreign counterparts) are omitted, not an
// error; their display label derives from the key itself.
func (f *AttributeFetcher) Fetch(ctx context.Context, keys []identity.Key) (map[identity.Key]Attributes, error) {
	rows, err := f.registry.FetchCompanies(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make(map[identity.Key]Attributes, len(rows))
	for key, row := range rows {
		out[key] = f.fromRow(row)
	}

	partners, err := f.registry.FetchPartners(ctx, keys)
	if err != nil {
		return nil, err
	}
	for key, row := range partners {
		out[key] = f.fromPartner(row)
	}
	return out, nil
}

func (f *AttributeFetcher) fromRow(row store.CompanyRow) Attributes {
	label := row.LegalName
	if label == "" {
		label = row.TradeName
	}
	if label == "" {
		label = row.Key.ID
	}

	municipality := row.Municipality
	activity := row.ActivityCode
	legalNature := row.LegalNatureCode
	if f.dicts != nil {
		municipality = f.dicts.Municipality(row.Municipality)
		activity = f.dicts.Activity(row.ActivityCode)
		legalNature = f.dicts.LegalNature(row.LegalNatureCode)
	}

	fields := map[string]string{
		"situacao_cadastral":     row.StatusCode,
		"cnae":                   activity,
		"municipio":              municipality,
		"uf":                     row.State,
		"data_inicio_atividades": row.Started,
	}
	if row.LegalNatureCode != "" {
		fields["natureza_juridica"] = legalNature
	}
	if row.TradeName != "" {
		fields["nome_fantasia"] = row.TradeName
	}
	return Attributes{Label: label, Fields: fields}
}

func (f *AttributeFetcher) fromPartner(row store.PartnerRow) Attributes {
	fields := make(map[string]string, 1)
	if row.RoleCode != "" {
		role := row.RoleCode
		if f.dicts != nil {
			role = f.dicts.PartnerRole(row.RoleCode)
		}
		fields["qualificacao"] = role
	}
	return Attributes{Label: row.Name, Fields: fields}
}
