package store

import (
	"context"
	"database/sql"
)

// Dictionaries holds the code-to-description lookup tables from the registry
// snapshot. Built once at process start and shared read-only across all
// concurrent traversals; never mutated afterwards.
type Dictionaries struct {
	municipality map[string]string
	activity     map[string]string
	legalNature  map[string]string
	partnerRole  map[string]string
}

// LoadDictionaries reads all code tables in one pass. Tables missing from
// the snapshot yield empty dictionaries, which degrade to raw codes.
func (s *RegistryStore) LoadDictionaries(ctx context.Context) (*Dictionaries, error) {
	d := &Dictionaries{
		municipality: make(map[string]string),
		activity:     make(map[string]string),
		legalNature:  make(map[string]string),
		partnerRole:  make(map[string]string),
	}
	tables := []struct {
		table string
		dest  map[string]string
	}{
		{"municipio", d.municipality},
		{"cnae", d.activity},
		{"natureza_juridica", d.legalNature},
		{"qualificacao_socio", d.partnerRole},
	}
	for _, t := range tables {
		if err := loadCodeTable(ctx, s.db, t.table, t.dest); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func loadCodeTable(ctx context.Context, db *sql.DB, table string, dest map[string]string) error {
	rows, err := db.QueryContext(ctx, `SELECT codigo, descricao FROM `+table)
	if err != nil {
		// Optional table absent from this snapshot.
		return nil
	}
	return scanAll(rows, "dictionaries."+table, func() error {
		var code, desc string
		if err := rows.Scan(&code, &desc); err != nil {
			return err
		}
		dest[code] = desc
		return nil
	})
}

// describe falls back to the raw code when the dictionary has no entry.
func describe(dict map[string]string, code string) string {
	if desc, ok := dict[code]; ok {
		return desc
	}
	return code
}

// Municipality translates a municipality code.
func (d *Dictionaries) Municipality(code string) string { return describe(d.municipality, code) }

// Activity translates a CNAE activity code.
func (d *Dictionaries) Activity(code string) string { return describe(d.activity, code) }

// LegalNature translates a legal-nature code.
func (d *Dictionaries) LegalNature(code string) string { return describe(d.legalNature, code) }

// PartnerRole translates a partner-qualification code.
func (d *Dictionaries) PartnerRole(code string) string { return describe(d.partnerRole, code) }
