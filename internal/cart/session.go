package cart

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"storefront/internal/adapter"
	"storefront/internal/model"
	"storefront/internal/storage"
)

// Session manages the remote cart session of one browser profile. Its ID is
// persisted under KeySessionID; there is at most one per profile.
//
// The ID is only ever cleared explicitly (Clear); a failed mutation leaves it
// in place.
type Session struct {
	store   storage.Store
	adapter adapter.Adapter
	group   *singleflight.Group
	key     string // singleflight key, unique per profile
	logger  *slog.Logger
}

// ID returns the persisted session ID, or "" when there is none.
func (s *Session) ID(ctx context.Context) (string, error) {
	id, ok, err := s.store.Get(ctx, KeySessionID)
	if err != nil {
		return "", fmt.Errorf("reading cart session id: %w", err)
	}
	if !ok {
		return "", nil
	}
	return id, nil
}

type ensured struct {
	id   string
	cart *model.Cart
}

// EnsureSession returns the session ID, creating the remote cart seeded with
// seed when none is persisted. created is the new cart when this call
// created it, nil otherwise.
//
// Concurrent creations for one profile within the process share a single
// remote call. Only the caller whose seed was sent sees created != nil;
// callers that joined it still have to add their own lines. The shared call
// is detached from the caller's cancellation so one aborted request cannot
// fail the others waiting on it.
func (s *Session) EnsureSession(ctx context.Context, seed []model.LineInput) (id string, created *model.Cart, err error) {
	id, err = s.ID(ctx)
	if err != nil || id != "" {
		return id, nil, err
	}

	// Do runs fn on the calling goroutine, so ran marks the caller that sent seed.
	ran := false
	v, err, _ := s.group.Do(s.key, func() (any, error) {
		ran = true
		ctx := context.WithoutCancel(ctx)

		// Another context may have created it while we waited.
		if existing, err := s.ID(ctx); err != nil || existing != "" {
			return ensured{id: existing}, err
		}

		cart, err := s.adapter.CreateCart(ctx, seed)
		if err != nil {
			return ensured{}, err
		}
		if err := s.store.Set(ctx, KeySessionID, cart.ID); err != nil {
			s.logger.Error("remote cart created but its id was not persisted",
				slog.String("cart_id", cart.ID),
				slog.String("error", err.Error()))
			return ensured{}, fmt.Errorf("persisting cart session id: %w", err)
		}
		s.logger.Info("created remote cart",
			slog.String("cart_id", cart.ID),
			slog.Int("seed_lines", len(seed)))
		return ensured{id: cart.ID, cart: cart}, nil
	})
	if err != nil {
		return "", nil, err
	}

	res := v.(ensured)
	if !ran {
		return res.id, nil, nil
	}
	return res.id, res.cart, nil
}

// AddLines adds lines to the session, creating it seeded with lines when absent.
func (s *Session) AddLines(ctx context.Context, lines []model.LineInput) (*model.Cart, error) {
	id, created, err := s.EnsureSession(ctx, lines)
	if err != nil {
		return nil, err
	}
	if created != nil {
		return created, nil
	}
	return s.adapter.AddCartLines(ctx, id, lines)
}

// AddRemoteLine adds quantity of one variant.
func (s *Session) AddRemoteLine(ctx context.Context, variantID string, quantity int) (*model.Cart, error) {
	return s.AddLines(ctx, []model.LineInput{{VariantID: variantID, Quantity: quantity}})
}

// Fetch re-reads the remote cart. A missing session ID or a cart the remote
// no longer knows is reported as model.ErrNotFound.
func (s *Session) Fetch(ctx context.Context) (*model.Cart, error) {
	id, err := s.existing(ctx)
	if err != nil {
		return nil, err
	}
	return s.adapter.GetCart(ctx, id)
}

// UpdateLineQuantity sets a remote line's quantity; below 1 removes the line.
func (s *Session) UpdateLineQuantity(ctx context.Context, lineID string, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return s.RemoveLine(ctx, lineID)
	}
	id, err := s.existing(ctx)
	if err != nil {
		return nil, err
	}
	return s.adapter.UpdateCartLines(ctx, id, []model.LineUpdate{{LineID: lineID, Quantity: quantity}})
}

// RemoveLine removes a remote line.
func (s *Session) RemoveLine(ctx context.Context, lineID string) (*model.Cart, error) {
	id, err := s.existing(ctx)
	if err != nil {
		return nil, err
	}
	return s.adapter.RemoveCartLines(ctx, id, []string{lineID})
}

// Clear forgets the persisted session ID.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Remove(ctx, KeySessionID); err != nil {
		return fmt.Errorf("clearing cart session id: %w", err)
	}
	return nil
}

func (s *Session) existing(ctx context.Context) (string, error) {
	id, err := s.ID(ctx)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", model.NewNotFoundError("cart")
	}
	return id, nil
}
