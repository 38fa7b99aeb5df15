package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DemoIDPrefix marks products that live in the built-in demo catalog.
const DemoIDPrefix = "prod_"

// Source identifies where a product record was read from
type Source string

const (
	SourceShopify Source = "shopify"
	SourceDemo    Source = "demo"
)

// Product is a storefront product as seen by the studio. It is a read model
// assembled per request from either the live store or the demo catalog and
// is never persisted.
type Product struct {
	ID          string
	Title       string
	Description string
	Images      []string
	Price       decimal.Decimal
	Vendor      string
	Source      Source

	// Optional display metadata
	Materials  []string
	Dimensions string
	Features   []string
}

// PrimaryImage returns the first image URL, or "" when the product has none.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// PriceString formats the price the way storefronts display it ("299.00").
func (p *Product) PriceString() string {
	return p.Price.StringFixed(2)
}

// IsDemo reports whether the product came from the demo catalog
func (p *Product) IsDemo() bool {
	return p.Source == SourceDemo
}

// IsDemoID reports whether id names a demo catalog product.
func IsDemoID(id string) bool {
	return strings.HasPrefix(id, DemoIDPrefix)
}

// ParsePrice parses a storefront price string. Empty or malformed values
// yield zero, matching the "0.00" placeholder used when a product has no variants.
func ParsePrice(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
