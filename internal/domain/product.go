package domain

import (
	"encoding/json"
	"time"
)

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	ImageURL    string `json:"imageUrl"`
	Category    string `json:"category"`
	Description string `json:"description"`

	// Opaque storefront page templates, stored and returned as-is.
	ContentSections json.RawMessage `json:"content_sections,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// PublicProduct is the projection exposed on the public products endpoint.
type PublicProduct struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	ImageURL    string `json:"imageUrl"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (p Product) Public() PublicProduct {
	category := p.Category
	if category == "" {
		category = "other"
	}
	return PublicProduct{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Price:       p.Price,
		Currency:    p.Currency,
		ImageURL:    p.ImageURL,
		Category:    category,
		Description: p.Description,
	}
}

var voucherLabels = map[string]string{
	"amazon": "Amazon Gutschein",
	"psc":    "Paysafecard PIN",
	"apple":  "Apple Gift Card",
	"google": "Google Play Code",
}

// VoucherLabel maps a voucher type to its display label, defaulting to the
// generic "Gutschein".
func VoucherLabel(voucherType string) string {
	if l, ok := voucherLabels[voucherType]; ok {
		return l
	}
	return "Gutschein"
}
