package identity

import (
	"fmt"
	"strings"
)

// Kind discriminates the two entity classes in the registry.
type Kind uint8

const (
	// KindCompany is a legal entity identified by a 14-digit registration number.
	KindCompany Kind = iota + 1
	// KindPerson is a natural person identified by an 11-digit tax id or,
	// when unavailable, a normalized name key.
	KindPerson
)

// String returns the serialization prefix for the kind.
func (k Kind) String() string {
	switch k {
	case KindCompany:
		return "PJ"
	case KindPerson:
		return "PF"
	default:
		return "??"
	}
}

const (
	companyIDLen = 14
	personIDLen  = 11

	companyPrefix = "PJ_"
	personPrefix  = "PF_"
)

// Key is the canonical node identity: a tagged (kind, id, name) triple.
// It is comparable and is used directly as the dedup map key. Two keys are
// equal iff kind, id, and name key are byte-equal after normalization.
//
// Companies carry a zero-padded 14-digit ID and an empty Name. Persons carry
// an 11-digit tax ID plus the normalized name from the source relation; when
// the tax ID is unavailable (foreign or masked individuals) the ID is empty
// and the Name alone identifies the node.
type Key struct {
	Kind Kind
	ID   string
	Name string
}

// CompanyKey builds a company key from a digit string, zero-padding to 14 digits.
func CompanyKey(digits string) Key {
	return Key{Kind: KindCompany, ID: padDigits(digits, companyIDLen)}
}

// PersonKey builds a person key from a tax-id digit string and a raw name.
// Either argument may be empty, but not both.
func PersonKey(digits, name string) Key {
	id := ""
	if digits != "" {
		id = padDigits(digits, personIDLen)
	}
	return Key{Kind: KindPerson, ID: id, Name: NormalizeName(name)}
}

// IsZero reports whether the key is the zero value.
func (k Key) IsZero() bool {
	return k.Kind == 0
}

// String renders the external node id: the literal registration number
// prefixed PJ_ for companies; PF_<taxid>-<name> for persons, degrading to
// PF_<taxid> or PF_<namekey> when one half is missing. This is the only
// place the prefixed form is produced.
func (k Key) String() string {
	switch k.Kind {
	case KindCompany:
		return companyPrefix + k.ID
	case KindPerson:
		switch {
		case k.ID != "" && k.Name != "":
			return personPrefix + k.ID + "-" + k.Name
		case k.ID != "":
			return personPrefix + k.ID
		default:
			return personPrefix + k.Name
		}
	default:
		return ""
	}
}

// Label returns the human-readable display name for the key: the person's
// name when known, otherwise the bare identifier.
func (k Key) Label() string {
	if k.Kind == KindPerson && k.Name != "" {
		return k.Name
	}
	return k.ID
}

// ParseStored parses a node id as stored in the adjacency relation
// (PJ_<digits> or PF_<digits>-<name> variants) back into a canonical key.
func ParseStored(id string) (Key, error) {
	switch {
	case strings.HasPrefix(id, companyPrefix):
		digits := onlyDigits(id[len(companyPrefix):])
		if digits == "" {
			return Key{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
		return CompanyKey(digits), nil
	case strings.HasPrefix(id, personPrefix):
		rest := id[len(personPrefix):]
		taxID, name := splitPersonToken(rest)
		if taxID == "" && name == "" {
			return Key{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
		return PersonKey(taxID, name), nil
	default:
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
}

// splitPersonToken separates the optional leading tax id from the name half
// of a stored person token ("<11 digits>-<name>", "<11 digits>", "<name>").
func splitPersonToken(rest string) (taxID, name string) {
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		head := onlyDigits(rest[:i])
		if len(head) == personIDLen {
			return head, rest[i+1:]
		}
		return "", rest
	}
	digits := onlyDigits(rest)
	if len(digits) == personIDLen && digits == rest {
		return digits, ""
	}
	return "", rest
}

func padDigits(digits string, width int) string {
	if len(digits) >= width {
		return digits
	}
	return strings.Repeat("0", width-len(digits)) + digits
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
