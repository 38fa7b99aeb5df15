package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/config"
	"github.com/velvet/backend/internal/infrastructure/ecommerce"
)

// Session cookie names
const (
	CookieShopDomain   = "shopify_domain"
	CookieShopToken    = "shopify_token"
	CookieKlaviyoToken = "klaviyo_token"
)

// CredentialsKey is the gin context key for the request's platform credentials
const CredentialsKey = "credentials"

// ShopDomainKey carries the connected shop for the request log line
const ShopDomainKey = "shop_domain"

// Credentials reads the session cookies into the gin context
func Credentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := readCredentials(c.Request)
		c.Set(CredentialsKey, creds)
		if creds.Store.Domain != "" {
			c.Set(ShopDomainKey, creds.Store.Domain)
		}
		c.Next()
	}
}

// readCredentials treats a shop cookie that is not a *.myshopify.com domain
// as absent, leaving the store session incomplete.
func readCredentials(r *http.Request) integration.Credentials {
	value := func(name string) string {
		ck, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(ck.Value)
	}
	domain := value(CookieShopDomain)
	if !ecommerce.IsValidShopDomain(domain) {
		domain = ""
	}
	return integration.Credentials{
		Store: integration.StoreCredentials{
			Domain: domain,
			Token:  value(CookieShopToken),
		},
		Marketing: integration.MarketingCredentials{
			Token: value(CookieKlaviyoToken),
		},
	}
}

func lookupCredentials(c *gin.Context) (integration.Credentials, bool) {
	v, ok := c.Get(CredentialsKey)
	if !ok {
		return integration.Credentials{}, false
	}
	creds, ok := v.(integration.Credentials)
	return creds, ok
}

// GetCredentials returns the credentials set by the Credentials middleware.
// Routes mounted without it read the cookies directly.
func GetCredentials(c *gin.Context) integration.Credentials {
	if creds, ok := lookupCredentials(c); ok {
		return creds
	}
	return readCredentials(c.Request)
}

// Cookies writes and clears the session credential cookies
type Cookies struct {
	domain   string
	path     string
	secure   bool
	sameSite http.SameSite
}

// NewCookies creates a cookie writer from configuration
func NewCookies(cfg config.CookieConfig) *Cookies {
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	return &Cookies{
		domain:   cfg.Domain,
		path:     path,
		secure:   cfg.Secure,
		sameSite: parseSameSite(cfg.SameSite),
	}
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// maxAge 0 leaves the cookie without expiry, -1 deletes it
func (k *Cookies) set(c *gin.Context, name, value string, maxAge int, secure bool) {
	c.SetSameSite(k.sameSite)
	c.SetCookie(name, value, maxAge, k.path, k.domain, secure, true)
}

// SetStore stores the Shopify session
func (k *Cookies) SetStore(c *gin.Context, domain, token string) {
	k.set(c, CookieShopDomain, domain, 0, k.secure)
	k.set(c, CookieShopToken, token, 0, k.secure)
}

// ClearStore removes the Shopify session
func (k *Cookies) ClearStore(c *gin.Context) {
	k.set(c, CookieShopDomain, "", -1, k.secure)
	k.set(c, CookieShopToken, "", -1, k.secure)
}

// SetMarketing stores the Klaviyo OAuth token. It is always Secure.
func (k *Cookies) SetMarketing(c *gin.Context, token string) {
	k.set(c, CookieKlaviyoToken, token, 0, true)
}
