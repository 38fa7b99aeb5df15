package integration

import (
	"context"

	"github.com/velvet/backend/internal/domain/catalog"
)

// Storefront is the port to a live commerce store
type Storefront interface {
	// ListProducts returns active products of the store.
	ListProducts(ctx context.Context, creds StoreCredentials) ([]catalog.Product, error)

	// GetProduct returns one product, or ErrProductNotFound.
	GetProduct(ctx context.Context, creds StoreCredentials, productID string) (*catalog.Product, error)

	// PublishModelURL attaches the 3D model URL to the product as a metafield.
	PublishModelURL(ctx context.Context, creds StoreCredentials, productID, modelURL string) error
}

// ProductCatalog is a read-only product source used when no store is connected
type ProductCatalog interface {
	List(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, productID string) (*catalog.Product, error)
}
