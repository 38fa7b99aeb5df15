// Package demo serves the built-in demo catalog and mock 3D models used when
// no live store is connected.
package demo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/catalog"
	"github.com/velvet/backend/internal/domain/integration"
)

// Delays holds the simulated latencies of the demo catalog
type Delays struct {
	List     time.Duration
	Get      time.Duration
	Generate time.Duration
	Publish  time.Duration
}

// DefaultDelays returns the latencies the demo UI is tuned for
func DefaultDelays() Delays {
	return Delays{
		List:     800 * time.Millisecond,
		Get:      500 * time.Millisecond,
		Generate: 3 * time.Second,
		Publish:  1500 * time.Millisecond,
	}
}

var products = []catalog.Product{
	{
		ID:          "prod_001",
		Title:       "Ergonomic Aero Chair",
		Description: "The ultimate in comfort and style. Breathable mesh back, adjustable lumbar support, and sleek aluminum finish.",
		Images:      []string{"https://images.unsplash.com/photo-1592078615290-033ee584e267?auto=format&fit=crop&q=80&w=600"},
		Price:       decimal.RequireFromString("299.00"),
		Vendor:      "AeroLine",
		Source:      catalog.SourceDemo,
		Materials:   []string{"Mesh", "Aluminum"},
		Features:    []string{"Adjustable lumbar support"},
	},
	{
		ID:          "prod_002",
		Title:       "Minimalist Desk Lamp",
		Description: "A touch-sensitive LED lamp with adjustable brightness and color temperature. Perfect for late-night work sessions.",
		Images:      []string{"https://images.unsplash.com/photo-1565814329452-e1efa11c5b89?auto=format&fit=crop&q=80&w=600"},
		Price:       decimal.RequireFromString("89.00"),
		Vendor:      "Lumina",
		Source:      catalog.SourceDemo,
		Features:    []string{"Touch-sensitive", "Adjustable color temperature"},
	},
	{
		ID:          "prod_003",
		Title:       "Sonic Noise-Canceling Headphones",
		Description: "Immerse yourself in music with our industry-leading noise cancellation technology. 30-hour battery life.",
		Images:      []string{"https://images.unsplash.com/photo-1505740420928-5e560c06d30e?auto=format&fit=crop&q=80&w=600"},
		Price:       decimal.RequireFromString("199.00"),
		Vendor:      "SonicAudio",
		Source:      catalog.SourceDemo,
		Features:    []string{"Noise cancellation", "30-hour battery"},
	},
}

// Catalog is the read-only demo product table
type Catalog struct {
	delays Delays
	logger *zap.Logger
}

// NewCatalog creates a demo catalog with the given latencies
func NewCatalog(delays Delays, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{delays: delays, logger: logger}
}

// List returns every demo product after the list delay
func (c *Catalog) List(ctx context.Context) ([]catalog.Product, error) {
	if err := Wait(ctx, c.delays.List); err != nil {
		return nil, err
	}
	out := make([]catalog.Product, len(products))
	for i := range products {
		out[i] = clone(products[i])
	}
	return out, nil
}

// Get returns one demo product after the lookup delay
func (c *Catalog) Get(ctx context.Context, productID string) (*catalog.Product, error) {
	if err := Wait(ctx, c.delays.Get); err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == productID {
			p := clone(products[i])
			return &p, nil
		}
	}
	c.logger.Debug("Demo product not found", zap.String("product_id", productID))
	return nil, integration.ErrProductNotFound
}

// Delays returns the configured latencies
func (c *Catalog) Delays() Delays {
	return c.delays
}

// clone copies the slices so callers cannot mutate the shared table.
func clone(p catalog.Product) catalog.Product {
	p.Images = append([]string(nil), p.Images...)
	p.Materials = append([]string(nil), p.Materials...)
	p.Features = append([]string(nil), p.Features...)
	return p
}

// Wait sleeps for d or until ctx is done. A non-positive d returns at once.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure Catalog implements the ProductCatalog port
var _ integration.ProductCatalog = (*Catalog)(nil)
