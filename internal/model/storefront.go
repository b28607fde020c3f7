// Package model defines the storefront domain types shared by the GraphQL
// client, the cart core and the HTTP and CLI front doors.
package model

// === Catalog ===

// Image is a product or variant image.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

// SelectedOption is one option value a variant is configured with,
// e.g., {Name: "Size", Value: "M"}.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductOption is a configurable dimension of a product and its possible values.
type ProductOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Variant is a purchasable configuration of a product.
// ID is the opaque remote identifier used as the local cart line key.
type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Price            Money            `json:"price"`
	AvailableForSale bool             `json:"available_for_sale"`
	SelectedOptions  []SelectedOption `json:"selected_options,omitempty"`
	Image            *Image           `json:"image,omitempty"`
}

// Product is a catalog entry with its variants and options.
type Product struct {
	ID          string          `json:"id"`
	Handle      string          `json:"handle"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Images      []Image         `json:"images,omitempty"`
	Options     []ProductOption `json:"options,omitempty"`
	Variants    []Variant       `json:"variants"`
}

// DefaultVariant returns the first variant available for sale, falling back
// to the first variant. Returns nil for a product without variants.
func (p *Product) DefaultVariant() *Variant {
	for i := range p.Variants {
		if p.Variants[i].AvailableForSale {
			return &p.Variants[i]
		}
	}
	if len(p.Variants) > 0 {
		return &p.Variants[0]
	}
	return nil
}

// FindVariant returns the variant whose selected options match every entry
// in selected. Option names and values compare exactly. An empty selection
// yields DefaultVariant.
func (p *Product) FindVariant(selected map[string]string) *Variant {
	if len(selected) == 0 {
		return p.DefaultVariant()
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		matched := 0
		for _, opt := range v.SelectedOptions {
			if want, ok := selected[opt.Name]; ok && want == opt.Value {
				matched++
			}
		}
		if matched == len(selected) {
			return v
		}
	}
	return nil
}

// PageInfo carries cursor pagination state.
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor,omitempty"`
}

// CollectionRef identifies the collection a product listing was read from.
type CollectionRef struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Title  string `json:"title"`
}

// ProductConnection is one page of a product listing.
type ProductConnection struct {
	Products   []Product      `json:"products"`
	PageInfo   PageInfo       `json:"page_info"`
	Collection *CollectionRef `json:"collection,omitempty"`
}

// ListRequest selects a page of a product listing.
type ListRequest struct {
	First int    `json:"first,omitempty"`
	After string `json:"after,omitempty"`
}

// === Cart ===

// Merchandise is the variant a remote cart line refers to, with enough
// product context to render the line.
type Merchandise struct {
	VariantID     string `json:"variant_id"`
	VariantTitle  string `json:"variant_title,omitempty"`
	Price         Money  `json:"price"`
	ProductID     string `json:"product_id,omitempty"`
	ProductTitle  string `json:"product_title,omitempty"`
	ProductHandle string `json:"product_handle,omitempty"`
	Image         *Image `json:"image,omitempty"`
}

// CartLine is one line of the remote cart. ID is the remote line identifier,
// distinct from the variant identifier in Merchandise.
type CartLine struct {
	ID          string      `json:"id"`
	Quantity    int         `json:"quantity"`
	Total       Money       `json:"total"`
	Merchandise Merchandise `json:"merchandise"`
}

// Cart is the remote cart session as last fetched.
type Cart struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkout_url,omitempty"`
	TotalQuantity int        `json:"total_quantity"`
	Subtotal      Money      `json:"subtotal"`
	Total         Money      `json:"total"`
	Lines         []CartLine `json:"lines"`
}

// Line returns the line with the given remote line ID, or nil.
func (c *Cart) Line(id string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return &c.Lines[i]
		}
	}
	return nil
}

// QuantitiesByVariant sums line quantities per merchandise variant ID.
// Remote carts may hold several lines for one variant (e.g., differing attributes).
func (c *Cart) QuantitiesByVariant() map[string]int {
	out := make(map[string]int, len(c.Lines))
	for _, l := range c.Lines {
		out[l.Merchandise.VariantID] += l.Quantity
	}
	return out
}

// LineInput adds a variant to a remote cart.
type LineInput struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// LineUpdate sets the quantity of an existing remote cart line.
type LineUpdate struct {
	LineID   string `json:"line_id"`
	Quantity int    `json:"quantity"`
}
