package dto

import (
	"time"

	"github.com/velvet/backend/internal/domain/catalog"
	"github.com/velvet/backend/internal/domain/generation"
)

// GenerateRequest is the body of POST /products/:id/generate
type GenerateRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
	Mode  string `json:"mode" binding:"omitempty,oneof=real mock"`
}

// PublishRequest is the body of POST /products/:id/publish
type PublishRequest struct {
	ModelURL string `json:"modelUrl" binding:"required,max=2048"`
}

// CampaignRequest is the body of POST /products/:id/campaign
type CampaignRequest struct {
	Segment  string `json:"segment" binding:"required,max=128"`
	Email    string `json:"email" binding:"required,email"`
	ModelURL string `json:"modelUrl" binding:"max=2048"`
}

// VariantRequest is the body of POST /products/:id/variants
type VariantRequest struct {
	Email  string `json:"email" binding:"omitempty,email"`
	Prompt string `json:"prompt" binding:"required,max=1000"`
}

// ConnectStoreRequest is the body of POST /store/connect
type ConnectStoreRequest struct {
	Domain string `json:"domain" binding:"required,shopdomain"`
	Token  string `json:"token" binding:"required"`
}

// MeshTaskRequest is the body of POST /meshy/tasks
type MeshTaskRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// ProductResponse is the JSON shape of a product
type ProductResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Price       string   `json:"price"`
	Vendor      string   `json:"vendor"`
	Source      string   `json:"source"`
	Materials   []string `json:"materials,omitempty"`
	Dimensions  string   `json:"dimensions,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// NewProductResponse converts a catalog product
func NewProductResponse(p *catalog.Product) ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Images:      images,
		Price:       p.PriceString(),
		Vendor:      p.Vendor,
		Source:      string(p.Source),
		Materials:   p.Materials,
		Dimensions:  p.Dimensions,
		Features:    p.Features,
	}
}

// NewProductListResponse converts a product slice
func NewProductListResponse(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = NewProductResponse(&products[i])
	}
	return out
}

// GenerationResponse is the JSON shape of a ledger entry
type GenerationResponse struct {
	ID             string    `json:"id"`
	TaskID         string    `json:"taskId"`
	ProductID      string    `json:"productId"`
	ProductTitle   string    `json:"productTitle"`
	Mode           string    `json:"mode"`
	ModelURL       string    `json:"modelUrl,omitempty"`
	PrimitiveCount int       `json:"primitiveCount"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewGenerationResponse converts a ledger entry. The consumer email is not exposed.
func NewGenerationResponse(r *generation.Record) GenerationResponse {
	return GenerationResponse{
		ID:             r.ID.String(),
		TaskID:         r.TaskID,
		ProductID:      r.ProductID,
		ProductTitle:   r.ProductTitle,
		Mode:           r.Mode.String(),
		ModelURL:       r.ModelURL,
		PrimitiveCount: r.PrimitiveCount,
		Source:         r.Source,
		CreatedAt:      r.CreatedAt,
	}
}

// MeshTaskCreatedResponse is returned when an image-to-3D job starts
type MeshTaskCreatedResponse struct {
	TaskID string `json:"taskId"`
}

// StoreStatusResponse reports which integrations hold credentials
type StoreStatusResponse struct {
	ShopifyConnected bool   `json:"shopifyConnected"`
	ShopifyDomain    string `json:"shopifyDomain,omitempty"`
	KlaviyoConnected bool   `json:"klaviyoConnected"`
}

// ActionResponse is the bare {success} envelope of cookie actions
type ActionResponse struct {
	Success bool `json:"success"`
}
