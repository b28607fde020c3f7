package shopify

import (
	"storefront/internal/model"
)

// =============================================================================
// WIRE → MODEL TRANSFORMS
// =============================================================================

func toMoney(m moneyV2) model.Money {
	return model.ParseMoney(m.Amount, m.CurrencyCode)
}

func toImage(n *imageNode) *model.Image {
	if n == nil || n.URL == "" {
		return nil
	}
	return &model.Image{URL: n.URL, AltText: n.AltText}
}

func toProduct(n *productNode) *model.Product {
	p := &model.Product{
		ID:          n.ID,
		Handle:      n.Handle,
		Title:       n.Title,
		Description: n.Description,
		Variants:    make([]model.Variant, 0, len(n.Variants.Edges)),
	}

	for _, e := range n.Images.Edges {
		if img := toImage(&e.Node); img != nil {
			p.Images = append(p.Images, *img)
		}
	}
	for _, o := range n.Options {
		p.Options = append(p.Options, model.ProductOption{Name: o.Name, Values: o.Values})
	}
	for _, e := range n.Variants.Edges {
		v := e.Node
		variant := model.Variant{
			ID:               v.ID,
			Title:            v.Title,
			Price:            toMoney(v.Price),
			AvailableForSale: v.AvailableForSale,
			Image:            toImage(v.Image),
		}
		for _, so := range v.SelectedOptions {
			variant.SelectedOptions = append(variant.SelectedOptions, model.SelectedOption{Name: so.Name, Value: so.Value})
		}
		p.Variants = append(p.Variants, variant)
	}
	return p
}

func toProductConnection(c *productConnection) *model.ProductConnection {
	out := &model.ProductConnection{
		Products: make([]model.Product, 0, len(c.Edges)),
		PageInfo: model.PageInfo{
			HasNextPage: c.PageInfo.HasNextPage,
			EndCursor:   c.PageInfo.EndCursor,
		},
	}
	for i := range c.Edges {
		out.Products = append(out.Products, *toProduct(&c.Edges[i].Node))
	}
	return out
}

func toCart(n *cartNode) *model.Cart {
	c := &model.Cart{
		ID:            n.ID,
		CheckoutURL:   n.CheckoutURL,
		TotalQuantity: n.TotalQuantity,
		Subtotal:      toMoney(n.Cost.SubtotalAmount),
		Total:         toMoney(n.Cost.TotalAmount),
		Lines:         make([]model.CartLine, 0, len(n.Lines.Edges)),
	}
	for _, e := range n.Lines.Edges {
		l := e.Node
		c.Lines = append(c.Lines, model.CartLine{
			ID:       l.ID,
			Quantity: l.Quantity,
			Total:    toMoney(l.Cost.TotalAmount),
			Merchandise: model.Merchandise{
				VariantID:     l.Merchandise.ID,
				VariantTitle:  l.Merchandise.Title,
				Price:         toMoney(l.Merchandise.Price),
				ProductID:     l.Merchandise.Product.ID,
				ProductTitle:  l.Merchandise.Product.Title,
				ProductHandle: l.Merchandise.Product.Handle,
				Image:         toImage(l.Merchandise.Image),
			},
		})
	}
	return c
}

// result resolves a mutation payload to a cart or an error.
// User errors win over a returned cart; a payload with neither means the
// cart no longer exists.
func (p *cartPayload) result() (*model.Cart, error) {
	if len(p.UserErrors) > 0 {
		first := p.UserErrors[0]
		return nil, model.NewUserError(first.Field, first.Message)
	}
	if p.Cart == nil {
		return nil, model.NewNotFoundError("cart")
	}
	return toCart(p.Cart), nil
}

// === MODEL → WIRE ===

func lineInputs(lines []model.LineInput) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		out = append(out, map[string]any{
			"merchandiseId": l.VariantID,
			"quantity":      l.Quantity,
		})
	}
	return out
}

func lineUpdates(updates []model.LineUpdate) []map[string]any {
	out := make([]map[string]any, 0, len(updates))
	for _, u := range updates {
		out = append(out, map[string]any{
			"id":       u.LineID,
			"quantity": u.Quantity,
		})
	}
	return out
}
