package variants

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
	"github.com/angelmondragon/posfront/pkg/sequence"
)

// Listing is a fetched variant list tagged with the request sequence that produced it.
// Seq is zero when the fetch was not tied to a session.
type Listing struct {
	ProductID string           `json:"productId"`
	Seq       uint64           `json:"seq"`
	Variants  []ProductVariant `json:"variants"`
}

// Service exposes variant reads and mutations with per-session request ordering.
type Service interface {
	ListForSession(ctx context.Context, sessionID string, ref ProductRef) (Listing, error)
	Get(ctx context.Context, ref ProductRef, variantID string) (*ProductVariant, error)
	Create(ctx context.Context, sessionID string, ref ProductRef, input VariantInput) (*ProductVariant, Listing, error)
	Update(ctx context.Context, sessionID string, ref ProductRef, variantID string, input VariantInput) (*ProductVariant, Listing, error)
	// Delete reports deleted=true once the store confirmed the removal, even when the re-fetch fails.
	Delete(ctx context.Context, sessionID string, ref ProductRef, variantID string) (listing Listing, deleted bool, err error)
}

type service struct {
	client Client
	seq    sequence.Sequencer
	logg   *logger.Logger
}

// NewService builds a variant service.
func NewService(client Client, seq sequence.Sequencer, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("variant client required")
	}
	if seq == nil {
		return nil, fmt.Errorf("sequencer required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{client: client, seq: seq, logg: logg}, nil
}

// SequenceKey scopes request ordering to one session and product.
func SequenceKey(sessionID, productID string) string {
	return "variants:" + sessionID + ":" + productID
}

func (s *service) ListForSession(ctx context.Context, sessionID string, ref ProductRef) (Listing, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		items, err := s.fetch(ctx, ref)
		if err != nil {
			return Listing{}, err
		}
		return Listing{ProductID: ref.ProductID, Variants: items}, nil
	}

	key := SequenceKey(sessionID, ref.ProductID)
	seq, err := s.seq.Next(ctx, key)
	if err != nil {
		return Listing{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue variant request sequence")
	}

	items, err := s.fetch(ctx, ref)
	if err != nil {
		return Listing{}, err
	}

	current, err := sequence.IsCurrent(ctx, s.seq, key, seq)
	if err != nil {
		return Listing{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check variant request sequence")
	}
	if !current {
		return Listing{}, pkgerrors.New(pkgerrors.CodeStaleResponse, "variant list superseded by a newer request").
			WithDetails(map[string]any{"product_id": ref.ProductID, "seq": seq})
	}
	return Listing{ProductID: ref.ProductID, Seq: seq, Variants: items}, nil
}

func (s *service) fetch(ctx context.Context, ref ProductRef) ([]ProductVariant, error) {
	items, err := s.client.ListByProduct(ctx, ref)
	if err != nil {
		return nil, err
	}
	if n := CountDefaults(items); n > 1 {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id":    ref.ProductID,
			"default_count": n,
		})
		s.logg.Warn(logCtx, "product has more than one default variant")
	}
	return items, nil
}

func (s *service) Get(ctx context.Context, ref ProductRef, variantID string) (*ProductVariant, error) {
	return s.client.Get(ctx, ref, variantID)
}

func (s *service) Create(ctx context.Context, sessionID string, ref ProductRef, input VariantInput) (*ProductVariant, Listing, error) {
	created, err := s.client.Create(ctx, ref, input)
	if err != nil {
		return nil, Listing{}, err
	}
	listing, err := s.ListForSession(ctx, sessionID, ref)
	return created, listing, err
}

func (s *service) Update(ctx context.Context, sessionID string, ref ProductRef, variantID string, input VariantInput) (*ProductVariant, Listing, error) {
	updated, err := s.client.Update(ctx, ref, variantID, input)
	if err != nil {
		return nil, Listing{}, err
	}
	listing, err := s.ListForSession(ctx, sessionID, ref)
	return updated, listing, err
}

func (s *service) Delete(ctx context.Context, sessionID string, ref ProductRef, variantID string) (Listing, bool, error) {
	if err := s.client.Delete(ctx, ref, variantID); err != nil {
		return Listing{}, false, err
	}
	listing, err := s.ListForSession(ctx, sessionID, ref)
	return listing, true, err
}
