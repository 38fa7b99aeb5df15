package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/velvet/backend/internal/domain/integration"
)

// ShopifyConfig holds configuration for the Shopify Admin API and app install flow
type ShopifyConfig struct {
	// APIKey is the app's client id
	APIKey string
	// APISecret signs OAuth callbacks and authenticates the token exchange
	APISecret string
	// Scopes requested at install, comma separated
	Scopes string
	// APIVersion pins the Admin REST API version (e.g. 2024-01)
	APIVersion string
	// Timeout bounds every Admin API call
	Timeout time.Duration
}

const (
	ShopifyDefaultAPIVersion = "2024-01"
	ShopifyDefaultScopes     = "read_products,write_products"

	// ShopifyMetafieldNamespace and ShopifyMetafieldKey locate the published model URL.
	ShopifyMetafieldNamespace = "velvet"
	ShopifyMetafieldKey       = "model_url"

	shopifyHMACParam = "hmac"
)

// Errors for Shopify configuration and input
var (
	ErrShopifyInvalidAPIVersion = errors.New("shopify: api version must look like YYYY-MM")
	ErrShopifyInvalidShopDomain = errors.New("shopify: invalid shop domain")
	ErrShopifyInvalidProductID  = errors.New("shopify: invalid product ID format")
)

var (
	shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.myshopify\.com$`)
	apiVersionPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// NewShopifyConfig creates a Shopify configuration with defaults
func NewShopifyConfig(apiKey, apiSecret string) *ShopifyConfig {
	return &ShopifyConfig{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		Scopes:     ShopifyDefaultScopes,
		APIVersion: ShopifyDefaultAPIVersion,
		Timeout:    30 * time.Second,
	}
}

// Validate fills defaults and rejects malformed settings. Credentials are
// optional here; operations that need them fail with ErrPlatformNotConfigured.
func (c *ShopifyConfig) Validate() error {
	if c.APIVersion == "" {
		c.APIVersion = ShopifyDefaultAPIVersion
	}
	if !apiVersionPattern.MatchString(c.APIVersion) {
		return fmt.Errorf("%w: %q", ErrShopifyInvalidAPIVersion, c.APIVersion)
	}
	if c.Scopes == "" {
		c.Scopes = ShopifyDefaultScopes
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

// ValidateShopDomain checks that shop is a bare *.myshopify.com host.
func ValidateShopDomain(shop string) error {
	if !shopDomainPattern.MatchString(shop) {
		return fmt.Errorf("%w: %q", ErrShopifyInvalidShopDomain, shop)
	}
	return nil
}

// IsValidShopDomain is the boolean form of ValidateShopDomain.
func IsValidShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(shop)
}

// CallbackMessage builds the string Shopify signs: every parameter except
// hmac, keys sorted, joined as key=value with &. Repeated keys keep their
// last value.
func CallbackMessage(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == shopifyHMACParam {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteByte('&')
		}
		values := params[k]
		builder.WriteString(k)
		builder.WriteByte('=')
		if len(values) > 0 {
			builder.WriteString(values[len(values)-1])
		}
	}
	return builder.String()
}

// Sign returns the hex HMAC-SHA256 of the callback message.
func (c *ShopifyConfig) Sign(params url.Values) string {
	mac := hmac.New(sha256.New, []byte(c.APISecret))
	mac.Write([]byte(CallbackMessage(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallback checks the hmac parameter of an OAuth callback query.
func (c *ShopifyConfig) VerifyCallback(params url.Values) error {
	if c.APISecret == "" {
		return fmt.Errorf("%w: shopify api secret", integration.ErrPlatformNotConfigured)
	}
	supplied := params.Get(shopifyHMACParam)
	if supplied == "" {
		return fmt.Errorf("%w: missing hmac", integration.ErrPlatformInvalidSignature)
	}
	expected := c.Sign(params)
	if !hmac.Equal([]byte(expected), []byte(supplied)) {
		return integration.ErrPlatformInvalidSignature
	}
	return nil
}

// AuthorizeURL returns the app install URL for shop.
func (c *ShopifyConfig) AuthorizeURL(shop, redirectURI, state string) (string, error) {
	if err := ValidateShopDomain(shop); err != nil {
		return "", err
	}
	if c.APIKey == "" {
		return "", fmt.Errorf("%w: shopify api key", integration.ErrPlatformNotConfigured)
	}
	q := url.Values{}
	q.Set("client_id", c.APIKey)
	q.Set("scope", c.Scopes)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return "https://" + shop + "/admin/oauth/authorize?" + q.Encode(), nil
}
