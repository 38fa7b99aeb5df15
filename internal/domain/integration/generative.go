package integration

import (
	"context"

	"github.com/velvet/backend/internal/domain/generation"
)

// VisionAnalyzer describes product images in text
type VisionAnalyzer interface {
	// DescribeStructure breaks the product in the image down into simple shapes.
	DescribeStructure(ctx context.Context, imageURL string) (string, error)

	// SynthesizeVariantPrompt writes an image-generation prompt for a variant
	// of the product in the image.
	SynthesizeVariantPrompt(ctx context.Context, imageURL, request string) (string, error)
}

// GeometryGenerator reconstructs a product image as geometric primitives
type GeometryGenerator interface {
	GenerateGeometry(ctx context.Context, imageURL, description string) ([]generation.Primitive, error)
}

// ImageGenerator renders an image from a text prompt and returns its URL
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// MeshGenerator runs asynchronous image-to-3D jobs
type MeshGenerator interface {
	CreateTask(ctx context.Context, imageURL string) (string, error)
	GetTask(ctx context.Context, taskID string) (*generation.MeshTask, error)
}

// AssetArchive keeps copies of generated assets
type AssetArchive interface {
	// Enabled reports whether assets are actually stored.
	Enabled() bool

	// PutJSON stores v encoded as JSON under key.
	PutJSON(ctx context.Context, key string, v any) error

	// CopyFromURL downloads url and stores the body under key.
	CopyFromURL(ctx context.Context, key, url string) error
}
