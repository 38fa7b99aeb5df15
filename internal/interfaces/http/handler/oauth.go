package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/auth"
	"github.com/velvet/backend/internal/infrastructure/ecommerce"
	"github.com/velvet/backend/internal/infrastructure/logger"
	"github.com/velvet/backend/internal/infrastructure/marketing"
	"github.com/velvet/backend/internal/interfaces/http/dto"
	"github.com/velvet/backend/internal/interfaces/http/middleware"
)

// Callback paths registered with the OAuth apps
const (
	ShopifyCallbackPath = "/api/shopify/callback"
	KlaviyoCallbackPath = "/api/klaviyo/callback"
)

// OAuth error messages
const (
	oauthMissingParameters = "Missing parameters"
	oauthMissingShop       = "Missing shop parameter"
	oauthInvalidShop       = "Invalid shop domain"
	oauthHMACFailed        = "HMAC validation failed"
	oauthInvalidState      = "Invalid state"
	oauthExchangeFailed    = "Failed to exchange token"
	oauthNotConfigured     = "OAuth app is not configured"
	oauthInternal          = "Internal Server Error"
)

// StateManager issues and redeems OAuth state tokens
type StateManager interface {
	Issue(ctx context.Context, provider auth.Provider, shop string) (string, error)
	Verify(ctx context.Context, token string, provider auth.Provider, shop string) (*auth.StateClaims, error)
}

// ShopifyApp builds install URLs and verifies signed callbacks
type ShopifyApp interface {
	AuthorizeURL(shop, redirectURI, state string) (string, error)
	VerifyCallback(params url.Values) error
}

// ShopifyTokenExchanger trades an install code for an access token
type ShopifyTokenExchanger interface {
	ExchangeToken(ctx context.Context, shop, code string) (string, error)
}

// KlaviyoApp builds the consent URL of the Klaviyo OAuth app
type KlaviyoApp interface {
	IsMockOAuth() bool
	OAuthAuthorizeURL(redirectURI, state string) string
}

// KlaviyoTokenExchanger trades an authorization code for an access token
type KlaviyoTokenExchanger interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
}

// OAuthHandler runs the Shopify install and Klaviyo authorize flows
type OAuthHandler struct {
	shopifyApp      ShopifyApp
	shopifyExchange ShopifyTokenExchanger
	klaviyoApp      KlaviyoApp
	klaviyoExchange KlaviyoTokenExchanger
	states          StateManager
	cookies         *middleware.Cookies
	redirectURI     func(path string) string
}

// NewOAuthHandler creates a new OAuthHandler. redirectURI turns a callback
// path into the absolute URL registered with the provider.
func NewOAuthHandler(
	shopifyApp ShopifyApp,
	shopifyExchange ShopifyTokenExchanger,
	klaviyoApp KlaviyoApp,
	klaviyoExchange KlaviyoTokenExchanger,
	states StateManager,
	cookies *middleware.Cookies,
	redirectURI func(path string) string,
) *OAuthHandler {
	return &OAuthHandler{
		shopifyApp:      shopifyApp,
		shopifyExchange: shopifyExchange,
		klaviyoApp:      klaviyoApp,
		klaviyoExchange: klaviyoExchange,
		states:          states,
		cookies:         cookies,
		redirectURI:     redirectURI,
	}
}

func oauthError(c *gin.Context, status int, message string) {
	c.JSON(status, dto.OAuthErrorResponse{Error: message})
}

// ShopifyAuth godoc
// @Summary      Start the Shopify app install
// @Description  Validates the shop, issues a signed state and redirects to the shop's authorize page
// @Tags         oauth
// @Produce      json
// @Param        shop query string true "Shop domain (*.myshopify.com)"
// @Success      302
// @Failure      400 {object} dto.OAuthErrorResponse
// @Failure      500 {object} dto.OAuthErrorResponse
// @Router       /shopify/auth [get]
func (h *OAuthHandler) ShopifyAuth(c *gin.Context) {
	shop := c.Query("shop")
	if shop == "" {
		oauthError(c, http.StatusBadRequest, oauthMissingShop)
		return
	}
	if !ecommerce.IsValidShopDomain(shop) {
		oauthError(c, http.StatusBadRequest, oauthInvalidShop)
		return
	}

	state, err := h.states.Issue(c.Request.Context(), auth.ProviderShopify, shop)
	if err != nil {
		logger.GetGinLogger(c).Error("Failed to issue OAuth state", zap.Error(err))
		oauthError(c, http.StatusInternalServerError, oauthInternal)
		return
	}

	authURL, err := h.shopifyApp.AuthorizeURL(shop, h.redirectURI(ShopifyCallbackPath), state)
	if err != nil {
		if errors.Is(err, integration.ErrPlatformNotConfigured) {
			oauthError(c, http.StatusInternalServerError, oauthNotConfigured)
			return
		}
		oauthError(c, http.StatusBadRequest, oauthInvalidShop)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// ShopifyCallback godoc
// @Summary      Complete the Shopify app install
// @Description  Verifies the callback HMAC and state, exchanges the code and stores the session cookies
// @Tags         oauth
// @Produce      json
// @Param        shop  query string true  "Shop domain"
// @Param        code  query string true  "Authorization code"
// @Param        hmac  query string true  "Callback signature"
// @Param        state query string false "State issued by /shopify/auth"
// @Success      302
// @Failure      400 {object} dto.OAuthErrorResponse
// @Failure      403 {object} dto.OAuthErrorResponse
// @Failure      500 {object} dto.OAuthErrorResponse
// @Router       /shopify/callback [get]
func (h *OAuthHandler) ShopifyCallback(c *gin.Context) {
	query := c.Request.URL.Query()
	shop, code, hmac := query.Get("shop"), query.Get("code"), query.Get("hmac")
	if shop == "" || code == "" || hmac == "" {
		oauthError(c, http.StatusBadRequest, oauthMissingParameters)
		return
	}
	log := logger.GetGinLogger(c).With(zap.String("shop", shop))

	if err := h.shopifyApp.VerifyCallback(query); err != nil {
		if errors.Is(err, integration.ErrPlatformNotConfigured) {
			log.Error("Shopify callback received without an API secret")
			oauthError(c, http.StatusInternalServerError, oauthNotConfigured)
			return
		}
		log.Warn("Shopify callback HMAC mismatch")
		oauthError(c, http.StatusForbidden, oauthHMACFailed)
		return
	}
	if !ecommerce.IsValidShopDomain(shop) {
		oauthError(c, http.StatusBadRequest, oauthInvalidShop)
		return
	}

	if state := query.Get("state"); state != "" {
		if _, err := h.states.Verify(c.Request.Context(), state, auth.ProviderShopify, shop); err != nil {
			log.Warn("Shopify callback state rejected", zap.Error(err))
			oauthError(c, http.StatusForbidden, oauthInvalidState)
			return
		}
	}

	token, err := h.shopifyExchange.ExchangeToken(c.Request.Context(), shop, code)
	if err != nil {
		log.Error("Shopify token exchange failed", zap.Error(err))
		oauthError(c, http.StatusInternalServerError, oauthExchangeFailed)
		return
	}

	h.cookies.SetStore(c, shop, token)
	log.Info("Shopify store connected")
	c.Redirect(http.StatusFound, "/")
}

// KlaviyoAuth godoc
// @Summary      Start the Klaviyo OAuth flow
// @Description  Issues a signed state and redirects to the Klaviyo consent page
// @Tags         oauth
// @Success      302
// @Failure      500 {object} dto.OAuthErrorResponse
// @Router       /klaviyo/auth [get]
func (h *OAuthHandler) KlaviyoAuth(c *gin.Context) {
	state, err := h.states.Issue(c.Request.Context(), auth.ProviderKlaviyo, "")
	if err != nil {
		logger.GetGinLogger(c).Error("Failed to issue OAuth state", zap.Error(err))
		oauthError(c, http.StatusInternalServerError, oauthInternal)
		return
	}
	c.Redirect(http.StatusFound, h.klaviyoApp.OAuthAuthorizeURL(h.redirectURI(KlaviyoCallbackPath), state))
}

// KlaviyoCallback godoc
// @Summary      Complete the Klaviyo OAuth flow
// @Description  Exchanges the code for a token and stores it in a cookie. Demo apps and code-less callbacks get a mock token.
// @Tags         oauth
// @Param        code  query string false "Authorization code"
// @Param        state query string false "State issued by /klaviyo/auth; required when a code is exchanged"
// @Success      302
// @Failure      403 {object} dto.OAuthErrorResponse
// @Failure      500 {object} dto.OAuthErrorResponse
// @Router       /klaviyo/callback [get]
func (h *OAuthHandler) KlaviyoCallback(c *gin.Context) {
	log := logger.GetGinLogger(c)
	code, state := c.Query("code"), c.Query("state")
	mockFlow := code == "" || h.klaviyoApp.IsMockOAuth()

	// A real code exchange requires state
	if state == "" && !mockFlow {
		log.Warn("Klaviyo callback without state")
		oauthError(c, http.StatusForbidden, oauthInvalidState)
		return
	}
	if state != "" {
		if _, err := h.states.Verify(c.Request.Context(), state, auth.ProviderKlaviyo, ""); err != nil {
			log.Warn("Klaviyo callback state rejected", zap.Error(err))
			oauthError(c, http.StatusForbidden, oauthInvalidState)
			return
		}
	}

	if mockFlow {
		log.Info("Klaviyo connected with mock token", zap.Bool("mock", true))
		h.cookies.SetMarketing(c, marketing.KlaviyoMockAccessToken)
		c.Redirect(http.StatusFound, "/")
		return
	}

	token, err := h.klaviyoExchange.ExchangeCode(c.Request.Context(), code, h.redirectURI(KlaviyoCallbackPath))
	if err != nil {
		log.Error("Klaviyo token exchange failed", zap.Error(err))
		if errors.Is(err, integration.ErrPlatformAuthFailed) {
			oauthError(c, http.StatusInternalServerError, oauthExchangeFailed)
			return
		}
		oauthError(c, http.StatusInternalServerError, oauthInternal)
		return
	}

	h.cookies.SetMarketing(c, token)
	c.Redirect(http.StatusFound, "/")
}
