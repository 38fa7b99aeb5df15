package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velvet/backend/internal/domain/catalog"
	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/interfaces/http/dto"
	"github.com/velvet/backend/internal/interfaces/http/middleware"
)

// ProductService is the part of the studio service used by ProductHandler
type ProductService interface {
	ListProducts(ctx context.Context, creds integration.Credentials) ([]catalog.Product, error)
	GetProduct(ctx context.Context, creds integration.Credentials, productID string, allowMock bool) (*catalog.Product, error)
	Generate3DModel(ctx context.Context, creds integration.Credentials, productID, email string, mode generation.Mode) (*generation.Result, error)
	PublishToStore(ctx context.Context, creds integration.Credentials, productID, modelURL string) (*generation.ActionResult, error)
	SendCampaign(ctx context.Context, creds integration.Credentials, productID, segment, email, modelURL string) (*generation.ActionResult, error)
	GenerateVariantImage(ctx context.Context, creds integration.Credentials, productID, email, request string) (*generation.VariantResult, error)
}

// ProductHandler serves the product catalog and the per-product actions
type ProductHandler struct {
	BaseHandler
	svc ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(svc ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// List godoc
// @Summary      List products
// @Description  Lists the connected store's products, or the demo catalog when no store is connected or it returns nothing
// @Tags         products
// @Produce      json
// @Success      200 {object} dto.Response{data=[]dto.ProductResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.svc.ListProducts(c.Request.Context(), middleware.GetCredentials(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewProductListResponse(products))
}

// Get godoc
// @Summary      Get a product
// @Description  Reads one product from the connected store. Demo ids (prod_) and mode=mock fall back to the demo catalog.
// @Tags         products
// @Produce      json
// @Param        id   path  string true  "Product ID"
// @Param        mode query string false "mock to allow the demo catalog"
// @Success      200 {object} dto.Response{data=dto.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id := c.Param("id")
	allowMock := catalog.IsDemoID(id) || c.Query("mode") == generation.ModeMock.String()

	product, err := h.svc.GetProduct(c.Request.Context(), middleware.GetCredentials(c), id, allowMock)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewProductResponse(product))
}

// Generate godoc
// @Summary      Generate a 3D model
// @Description  Runs the voxel pipeline (mode=real) or picks a stock model (mode=mock, the default)
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string               true "Product ID"
// @Param        request body dto.GenerateRequest true "Generation request"
// @Success      200 {object} generation.Result
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/generate [post]
func (h *ProductHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if !bindJSON(c, &req) {
		return
	}
	mode, err := generation.ParseMode(req.Mode)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Generate3DModel(c.Request.Context(), middleware.GetCredentials(c), c.Param("id"), req.Email, mode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Publish godoc
// @Summary      Publish a model to the store
// @Description  Writes the model URL to the velvet.model_url metafield, or simulates it without a store
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string              true "Product ID"
// @Param        request body dto.PublishRequest true "Publish request"
// @Success      200 {object} generation.ActionResult
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/publish [post]
func (h *ProductHandler) Publish(c *gin.Context) {
	var req dto.PublishRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.PublishToStore(c.Request.Context(), middleware.GetCredentials(c), c.Param("id"), req.ModelURL)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Campaign godoc
// @Summary      Trigger a 3D campaign
// @Description  Sends the 3D Campaign Triggered event for a live store product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string               true "Product ID"
// @Param        request body dto.CampaignRequest true "Campaign request"
// @Success      200 {object} generation.ActionResult
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/campaign [post]
func (h *ProductHandler) Campaign(c *gin.Context) {
	var req dto.CampaignRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.SendCampaign(c.Request.Context(), middleware.GetCredentials(c),
		c.Param("id"), req.Segment, req.Email, req.ModelURL)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Variants godoc
// @Summary      Generate a product variant image
// @Description  Turns a free-text request into an image prompt for the product photo and renders it
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string              true "Product ID"
// @Param        request body dto.VariantRequest true "Variant request"
// @Success      200 {object} generation.VariantResult
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/variants [post]
func (h *ProductHandler) Variants(c *gin.Context) {
	var req dto.VariantRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.GenerateVariantImage(c.Request.Context(), middleware.GetCredentials(c),
		c.Param("id"), req.Email, req.Prompt)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
