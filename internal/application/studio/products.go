package studio

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/catalog"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

// ListProducts returns the connected store's products. An empty or failed
// store read falls back to the demo catalog.
func (s *Service) ListProducts(ctx context.Context, creds integration.Credentials) ([]catalog.Product, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "studio", "list_products")
	defer span.End()

	if creds.Store.IsComplete() {
		products, err := s.store.ListProducts(ctx, creds.Store)
		switch {
		case err != nil:
			s.log(ctx).Warn("Failed to fetch store products, using demo catalog",
				zap.String("shop", creds.Store.Domain), zap.Error(err))
		case len(products) > 0:
			telemetry.SetAttributes(ctx, telemetry.SpanAttrSource, string(catalog.SourceShopify))
			return products, nil
		}
	}

	s.metrics.RecordDemoFallback(ctx, "list_products")
	telemetry.SetAttributes(ctx, telemetry.SpanAttrSource, string(catalog.SourceDemo))
	return s.catalog.List(ctx)
}

// GetProduct looks a product up in the connected store, then in the demo
// catalog when allowMock is set. It returns integration.ErrProductNotFound
// when neither has it.
func (s *Service) GetProduct(ctx context.Context, creds integration.Credentials, productID string, allowMock bool) (*catalog.Product, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "studio", "get_product")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.SpanAttrProductID, productID)

	if creds.Store.IsComplete() {
		product, err := s.store.GetProduct(ctx, creds.Store, productID)
		if err == nil && product != nil {
			return product, nil
		}
		if err != nil && !errors.Is(err, integration.ErrProductNotFound) {
			s.log(ctx).Warn("Failed to fetch store product",
				zap.String("product_id", productID), zap.Error(err))
		}
	}

	if !allowMock {
		return nil, integration.ErrProductNotFound
	}

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDemoFallback(ctx, "get_product")
	return product, nil
}
