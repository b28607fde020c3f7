package model

import (
	"testing"
)

func testProduct() *Product {
	return &Product{
		ID:    "gid://shopify/Product/1",
		Title: "Tee",
		Variants: []Variant{
			{
				ID:               "v-s",
				AvailableForSale: false,
				SelectedOptions:  []SelectedOption{{Name: "Size", Value: "S"}, {Name: "Color", Value: "Black"}},
			},
			{
				ID:               "v-m",
				AvailableForSale: true,
				SelectedOptions:  []SelectedOption{{Name: "Size", Value: "M"}, {Name: "Color", Value: "Black"}},
			},
			{
				ID:               "v-m-white",
				AvailableForSale: true,
				SelectedOptions:  []SelectedOption{{Name: "Size", Value: "M"}, {Name: "Color", Value: "White"}},
			},
		},
	}
}

func TestDefaultVariant(t *testing.T) {
	p := testProduct()
	if got := p.DefaultVariant(); got == nil || got.ID != "v-m" {
		t.Errorf("DefaultVariant() = %v, want v-m (first available)", got)
	}

	for i := range p.Variants {
		p.Variants[i].AvailableForSale = false
	}
	if got := p.DefaultVariant(); got == nil || got.ID != "v-s" {
		t.Errorf("DefaultVariant() = %v, want v-s (first overall)", got)
	}

	empty := &Product{}
	if got := empty.DefaultVariant(); got != nil {
		t.Errorf("DefaultVariant() on empty product = %v, want nil", got)
	}
}

func TestFindVariant(t *testing.T) {
	tests := []struct {
		name     string
		selected map[string]string
		want     string
	}{
		{"no selection uses default", nil, "v-m"},
		{"full match", map[string]string{"Size": "M", "Color": "White"}, "v-m-white"},
		{"partial selection picks first match", map[string]string{"Size": "M"}, "v-m"},
		{"no match", map[string]string{"Size": "XL"}, ""},
		{"unknown option", map[string]string{"Material": "Wool"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testProduct().FindVariant(tt.selected)
			gotID := ""
			if got != nil {
				gotID = got.ID
			}
			if gotID != tt.want {
				t.Errorf("FindVariant(%v) = %q, want %q", tt.selected, gotID, tt.want)
			}
		})
	}
}

func TestCartQuantitiesByVariant(t *testing.T) {
	c := &Cart{
		Lines: []CartLine{
			{ID: "l1", Quantity: 2, Merchandise: Merchandise{VariantID: "A"}},
			{ID: "l2", Quantity: 1, Merchandise: Merchandise{VariantID: "B"}},
			{ID: "l3", Quantity: 3, Merchandise: Merchandise{VariantID: "A"}},
		},
	}

	got := c.QuantitiesByVariant()
	if got["A"] != 5 || got["B"] != 1 || len(got) != 2 {
		t.Errorf("QuantitiesByVariant() = %v, want map[A:5 B:1]", got)
	}

	if l := c.Line("l2"); l == nil || l.Merchandise.VariantID != "B" {
		t.Errorf("Line(l2) = %v, want variant B", l)
	}
	if l := c.Line("missing"); l != nil {
		t.Errorf("Line(missing) = %v, want nil", l)
	}
}
