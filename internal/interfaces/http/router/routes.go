package router

import (
	"github.com/gin-gonic/gin"

	"github.com/velvet/backend/internal/interfaces/http/handler"
)

// Handlers groups every handler the studio API serves
type Handlers struct {
	Health      *handler.HealthHandler
	OAuth       *handler.OAuthHandler
	Products    *handler.ProductHandler
	Campaigns   *handler.CampaignHandler
	Generations *handler.GenerationHandler
	Mesh        *handler.MeshHandler
	Store       *handler.StoreHandler
}

// Mount registers the health check and every API route on engine
func Mount(engine *gin.Engine, h Handlers, opts ...RouterOption) *Router {
	engine.GET("/health", h.Health.Check)

	r := NewRouter(engine, opts...)
	r.Public(
		Section{Prefix: "/shopify", Routes: []Route{
			get("/auth", h.OAuth.ShopifyAuth),
			get("/callback", h.OAuth.ShopifyCallback),
		}},
		Section{Prefix: "/klaviyo", Routes: []Route{
			get("/auth", h.OAuth.KlaviyoAuth),
			get("/callback", h.OAuth.KlaviyoCallback),
		}},
	)
	r.Versioned(
		Section{Prefix: "/products", Routes: []Route{
			get("", h.Products.List),
			get("/:id", h.Products.Get),
			post("/:id/generate", h.Products.Generate),
			post("/:id/publish", h.Products.Publish),
			post("/:id/campaign", h.Products.Campaign),
			post("/:id/variants", h.Products.Variants),
		}},
		Section{Prefix: "/campaigns", Routes: []Route{
			get("/dashboard", h.Campaigns.Dashboard),
		}},
		Section{Prefix: "/generations", Routes: []Route{
			get("", h.Generations.List),
			get("/:taskId", h.Generations.Get),
		}},
		Section{Prefix: "/meshy/tasks", Routes: []Route{
			post("", h.Mesh.Create),
			get("/:id", h.Mesh.Get),
		}},
		Section{Prefix: "/store", Routes: []Route{
			post("/connect", h.Store.Connect),
			post("/disconnect", h.Store.Disconnect),
			get("/status", h.Store.Status),
		}},
	)
	r.Setup()
	return r
}
