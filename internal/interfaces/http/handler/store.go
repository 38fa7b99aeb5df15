package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velvet/backend/internal/interfaces/http/dto"
	"github.com/velvet/backend/internal/interfaces/http/middleware"
)

// StoreHandler connects and disconnects the storefront session
type StoreHandler struct {
	BaseHandler
	cookies *middleware.Cookies
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(cookies *middleware.Cookies) *StoreHandler {
	return &StoreHandler{cookies: cookies}
}

// Connect godoc
// @Summary      Connect a store manually
// @Description  Stores a shop domain and Admin API token in the session cookies
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        request body dto.ConnectStoreRequest true "Store credentials"
// @Success      200 {object} dto.ActionResponse
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/connect [post]
func (h *StoreHandler) Connect(c *gin.Context) {
	var req dto.ConnectStoreRequest
	if !bindJSON(c, &req) {
		return
	}
	h.cookies.SetStore(c, req.Domain, req.Token)
	c.JSON(http.StatusOK, dto.ActionResponse{Success: true})
}

// Disconnect godoc
// @Summary      Disconnect the store
// @Tags         store
// @Produce      json
// @Success      200 {object} dto.ActionResponse
// @Router       /store/disconnect [post]
func (h *StoreHandler) Disconnect(c *gin.Context) {
	h.cookies.ClearStore(c)
	c.JSON(http.StatusOK, dto.ActionResponse{Success: true})
}

// Status godoc
// @Summary      Integration status
// @Description  Reports which platforms have session credentials
// @Tags         store
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.StoreStatusResponse}
// @Router       /store/status [get]
func (h *StoreHandler) Status(c *gin.Context) {
	creds := middleware.GetCredentials(c)
	resp := dto.StoreStatusResponse{
		ShopifyConnected: creds.Store.IsComplete(),
		KlaviyoConnected: creds.Marketing.IsConnected(),
	}
	if resp.ShopifyConnected {
		resp.ShopifyDomain = creds.Store.Domain
	}
	h.Success(c, resp)
}
