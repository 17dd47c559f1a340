package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentifier is returned when a seed token matches no recognized
// identifier shape and yields no name-lookup result.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// NameIndex resolves a normalized name fragment against the registry,
// returning candidate keys ordered exact-match-first, then prefix matches in
// registry order.
type NameIndex interface {
	LookupName(ctx context.Context, nameKey string, limit int) ([]Key, error)
}

// Resolver turns raw seed tokens into canonical keys. Digit-shaped tokens are
// resolved purely; anything else goes through the name index. A single token
// may resolve to multiple keys (ambiguous name fragments), each of which the
// caller treats as an independent seed.
type Resolver struct {
	index NameIndex
	limit int
}

// DefaultNameMatchLimit bounds how many candidates one name fragment may
// fan out into.
const DefaultNameMatchLimit = 10

// NewResolver creates a resolver backed by the given name index. The index
// may be nil, in which case name fragments fail with ErrInvalidIdentifier.
func NewResolver(index NameIndex) *Resolver {
	return &Resolver{index: index, limit: DefaultNameMatchLimit}
}

// Resolve normalizes one raw token into zero or more canonical keys.
func (r *Resolver) Resolve(ctx context.Context, token string) ([]Key, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidIdentifier)
	}

	// Explicitly prefixed ids short-circuit shape detection.
	if strings.HasPrefix(token, companyPrefix) || strings.HasPrefix(token, personPrefix) {
		key, err := ParseStored(token)
		if err != nil {
			return nil, err
		}
		return []Key{key}, nil
	}

	if digits := NormalizeDigits(token); digits != "" {
		switch len(digits) {
		case companyIDLen:
			return []Key{CompanyKey(digits)}, nil
		case personIDLen:
			return []Key{PersonKey(digits, "")}, nil
		default:
			return nil, fmt.Errorf("%w: %q has %d digits, want %d or %d",
				ErrInvalidIdentifier, token, len(digits), companyIDLen, personIDLen)
		}
	}

	return r.resolveName(ctx, token)
}

// ResolveAll resolves a list of raw tokens. Invalid tokens do not abort the
// batch: their errors are collected so the caller can surface them as
// warnings while traversing the remaining valid seeds.
func (r *Resolver) ResolveAll(ctx context.Context, tokens []string) ([]Key, []error) {
	var keys []Key
	var errs []error
	seen := make(map[Key]struct{})
	for _, token := range tokens {
		resolved, err := r.Resolve(ctx, token)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, key := range resolved {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys, errs
}

func (r *Resolver) resolveName(ctx context.Context, token string) ([]Key, error) {
	if r.index == nil {
		return nil, fmt.Errorf("%w: %q is not a registration number and no name index is configured",
			ErrInvalidIdentifier, token)
	}
	nameKey := NormalizeName(token)
	if nameKey == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, token)
	}
	matches, err := r.index.LookupName(ctx, nameKey, r.limit)
	if err != nil {
		return nil, fmt.Errorf("name lookup for %q: %w", token, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no registry match for %q", ErrInvalidIdentifier, token)
	}
	return matches, nil
}
