package cart

import (
	"context"
	"errors"
	"log/slog"

	"storefront/internal/model"
)

// Page is one page context: a mirror loaded at open plus the profile's
// remote session. It is not safe for concurrent use.
type Page struct {
	svc      *Service
	profile  string
	mirror   *Mirror
	session  *Session
	notifier Notifier
	logger   *slog.Logger
}

// SyncResult reports a two-phase mutation: the local lines after the local
// phase, and the remote outcome. Err is the remote failure, if any; the
// local phase has already been persisted either way.
type SyncResult struct {
	Lines []Line      `json:"lines"`
	Cart  *model.Cart `json:"cart,omitempty"`
	Err   error       `json:"-"`
}

// Profile returns the browser profile this page acts for.
func (p *Page) Profile() string { return p.profile }

// Mirror returns the page's local cart mirror.
func (p *Page) Mirror() *Mirror { return p.mirror }

// Session returns the page's remote cart session.
func (p *Page) Session() *Session { return p.session }

// AddItem is the product page add: notices on success and failure.
func (p *Page) AddItem(ctx context.Context, variantID string, quantity int) (SyncResult, error) {
	res, err := p.add(ctx, variantID, quantity)
	if err != nil {
		return res, err
	}
	if res.Err != nil {
		p.logger.Warn("adding to remote cart failed",
			slog.String("variant_id", variantID),
			slog.String("error", res.Err.Error()))
		p.notify(LevelError, "Could not add to cart: "+userMessage(res.Err))
		return res, nil
	}
	p.notify(LevelSuccess, "Added to cart")
	return res, nil
}

// QuickAdd is the listing page add of one unit: notice on success only.
func (p *Page) QuickAdd(ctx context.Context, variantID string) (SyncResult, error) {
	res, err := p.add(ctx, variantID, 1)
	if err != nil {
		return res, err
	}
	if res.Err != nil {
		p.logger.Warn("quick add to remote cart failed",
			slog.String("variant_id", variantID),
			slog.String("error", res.Err.Error()))
		return res, nil
	}
	p.notify(LevelSuccess, "Added to cart")
	return res, nil
}

// add applies the local phase, then ensures a session seeded from the mirror
// and adds the quantity unless the seed already carried it.
func (p *Page) add(ctx context.Context, variantID string, quantity int) (SyncResult, error) {
	if err := p.mirror.AddItem(ctx, variantID, quantity); err != nil {
		return SyncResult{Lines: p.mirror.Lines()}, err
	}
	res := SyncResult{Lines: p.mirror.Lines()}

	_, created, err := p.session.EnsureSession(ctx, p.mirror.Inputs())
	if err != nil {
		res.Err = err
		return res, nil
	}
	if created != nil {
		res.Cart = created
		return res, nil
	}

	res.Cart, res.Err = p.session.AddRemoteLine(ctx, variantID, quantity)
	return res, nil
}

// UpdateQuantity is the cart page quantity change of a remote line:
// notices on success and failure. A quantity below 1 removes the line.
func (p *Page) UpdateQuantity(ctx context.Context, lineID string, quantity int) (SyncResult, error) {
	res, err := p.applyLineChange(ctx, lineID, quantity)
	if err != nil {
		return res, err
	}
	if res.Err != nil {
		p.logger.Warn("updating remote cart line failed",
			slog.String("line_id", lineID),
			slog.String("error", res.Err.Error()))
		p.notify(LevelError, "Could not update cart: "+userMessage(res.Err))
		return res, nil
	}
	if quantity < 1 {
		p.notify(LevelSuccess, "Item removed")
	} else {
		p.notify(LevelSuccess, "Cart updated")
	}
	return res, nil
}

// RemoveItem is the cart page removal of a remote line: notice on success only.
func (p *Page) RemoveItem(ctx context.Context, lineID string) (SyncResult, error) {
	res, err := p.applyLineChange(ctx, lineID, 0)
	if err != nil {
		return res, err
	}
	if res.Err != nil {
		p.logger.Warn("removing remote cart line failed",
			slog.String("line_id", lineID),
			slog.String("error", res.Err.Error()))
		return res, nil
	}
	p.notify(LevelSuccess, "Item removed")
	return res, nil
}

// applyLineChange maps a remote line to its variant, applies the new
// quantity to the mirror, then to the remote line. Other remote lines of the
// same variant keep counting toward the desired quantity.
func (p *Page) applyLineChange(ctx context.Context, lineID string, quantity int) (SyncResult, error) {
	if lineID == "" {
		return SyncResult{Lines: p.mirror.Lines()}, model.NewValidationError("line_id", "is required")
	}

	res := SyncResult{Lines: p.mirror.Lines()}
	current, err := p.session.Fetch(ctx)
	if err != nil {
		res.Err = err
		return res, nil
	}
	line := current.Line(lineID)
	if line == nil {
		res.Cart = current
		res.Err = model.NewNotFoundError("cart line")
		return res, nil
	}

	variantID := line.Merchandise.VariantID
	others := current.QuantitiesByVariant()[variantID] - line.Quantity
	desired := others + max(quantity, 0)
	if err := p.mirror.SetQuantity(ctx, variantID, desired); err != nil {
		return res, err
	}
	res.Lines = p.mirror.Lines()

	res.Cart, res.Err = p.session.UpdateLineQuantity(ctx, lineID, quantity)
	return res, nil
}

// LoadCart fetches the remote cart for display. Any failure degrades to an
// empty cart; Err carries the cause.
func (p *Page) LoadCart(ctx context.Context) SyncResult {
	res := SyncResult{Lines: p.mirror.Lines()}
	cart, err := p.session.Fetch(ctx)
	if err != nil {
		if !model.IsNotFound(err) {
			p.logger.Warn("loading remote cart failed", slog.String("error", err.Error()))
		}
		res.Cart = &model.Cart{Lines: []model.CartLine{}}
		res.Err = err
		return res
	}
	res.Cart = cart
	return res
}

// CartCount is the header badge count: the remote total when available,
// otherwise the local sum. remote reports which one was used.
func (p *Page) CartCount(ctx context.Context) (count int, remote bool) {
	cart, err := p.session.Fetch(ctx)
	if err != nil {
		if !model.IsNotFound(err) {
			p.logger.Warn("cart count fell back to local mirror", slog.String("error", err.Error()))
		}
		return p.mirror.TotalQuantity(), false
	}
	return cart.TotalQuantity, true
}

// Reset forgets the mirror and the session ID of this profile.
func (p *Page) Reset(ctx context.Context) error {
	if err := p.mirror.Reset(ctx); err != nil {
		return err
	}
	return p.session.Clear(ctx)
}

func (p *Page) notify(level Level, message string) {
	p.notifier.Notify(Notice{Level: level, Message: message})
}

// userMessage extracts the message meant for the buyer from err.
func userMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
