package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/budgeteer/internal/database/repository"
	"github.com/jask/budgeteer/internal/merchant"
)

// ResolveOptions carries caller-supplied overrides for a resolution.
type ResolveOptions struct {
	CanonicalName string
	YelpID        *string
}

// Resolution is the identity assigned to a raw merchant name.
type Resolution struct {
	MerchantID    string
	CanonicalName string
	NormalizedKey string
}

// ResolverService assigns stable merchant identities to raw payee text.
// Creation is idempotent: repeated or concurrent resolution of the same
// normalized key converges on one merchant via unique-key upserts.
type ResolverService struct {
	Merchants    *repository.MerchantRepo
	Transactions *repository.TransactionRepo
}

// Resolve maps rawName to a merchant identity, creating the merchant and
// alias lazily. A nil resolution (no error) means the name is unresolvable
// and the caller should leave the transaction's identity unset.
func (s *ResolverService) Resolve(ctx context.Context, rawName string, opts ResolveOptions) (*Resolution, error) {
	rawName = strings.TrimSpace(rawName)
	if rawName == "" {
		return nil, nil
	}
	key := merchant.NormalizeKey(rawName)
	if key == "" {
		return nil, nil
	}

	alias, err := s.Merchants.GetAliasByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if alias != nil {
		if alias.RawName != rawName {
			// Display-only refresh; identity unchanged.
			if err := s.Merchants.UpdateAliasRawName(ctx, alias.ID, rawName); err != nil {
				return nil, err
			}
		}
		m, err := s.Merchants.Get(ctx, alias.MerchantID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, nil
		}
		return &Resolution{MerchantID: m.ID, CanonicalName: m.CanonicalName, NormalizedKey: key}, nil
	}

	canonical := strings.TrimSpace(opts.CanonicalName)
	if canonical == "" {
		canonical = merchant.Canonicalize(rawName)
	}
	if canonical == "" {
		return nil, nil
	}

	m, err := s.Merchants.UpsertByCanonicalName(ctx, repository.Merchant{
		ID:            uuid.NewString(),
		CanonicalName: canonical,
		YelpID:        opts.YelpID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Merchants.UpsertAlias(ctx, repository.MerchantAlias{
		ID:            uuid.NewString(),
		MerchantID:    m.ID,
		NormalizedKey: key,
		RawName:       rawName,
		YelpID:        opts.YelpID,
	}); err != nil {
		return nil, err
	}
	return &Resolution{MerchantID: m.ID, CanonicalName: m.CanonicalName, NormalizedKey: key}, nil
}

// ResolveAndReassign resolves rawName and then sweeps historically
// unresolved transactions onto the new identity. Matching goes through the
// normalized key, so every spelling variant of the same merchant is caught,
// not just exact string equality. Used by manual merchant-resolution flows.
func (s *ResolverService) ResolveAndReassign(ctx context.Context, rawName string, opts ResolveOptions) (*Resolution, int, error) {
	res, err := s.Resolve(ctx, rawName, opts)
	if err != nil || res == nil {
		return res, 0, err
	}

	unresolved, err := s.Transactions.List(ctx, repository.TransactionFilters{Unresolved: true})
	if err != nil {
		return res, 0, err
	}
	reassigned := 0
	for _, t := range unresolved {
		text := t.Description
		if t.Merchant != nil && *t.Merchant != "" {
			text = *t.Merchant
		}
		if merchant.NormalizeKey(text) != res.NormalizedKey {
			continue
		}
		if err := s.Transactions.SetMerchant(ctx, t.ID, res.MerchantID, res.CanonicalName); err != nil {
			return res, reassigned, err
		}
		reassigned++
	}
	return res, reassigned, nil
}
