// Package marketing adapts the Klaviyo events, metrics and OAuth APIs to the
// studio's marketing port.
package marketing

import (
	"net/url"
	"strings"
	"time"
)

// KlaviyoConfig holds configuration for the Klaviyo API
type KlaviyoConfig struct {
	// PrivateKey authenticates server-side API calls. The placeholder
	// KlaviyoMockKey turns event tracking into a logged no-op.
	PrivateKey string
	// Revision pins the API revision header
	Revision string
	// BaseURL is the API origin (https://a.klaviyo.com)
	BaseURL string
	// Timeout bounds every API call
	Timeout time.Duration

	// OAuth app settings
	ClientID     string
	ClientSecret string
	AuthorizeURL string
	TokenURL     string
	Scopes       string
}

const (
	KlaviyoMockKey         = "pk_mock_key"
	KlaviyoMockAccessToken = "mock_access_token_123"

	KlaviyoDefaultRevision     = "2025-01-15"
	KlaviyoDefaultBaseURL      = "https://a.klaviyo.com"
	KlaviyoDefaultAuthorizeURL = "https://www.klaviyo.com/oauth/authorize"
	KlaviyoDefaultTokenURL     = "https://a.klaviyo.com/oauth/token"
	KlaviyoDefaultScopes       = "events:write profiles:write"

	klaviyoMockKeyPrefix = "pk_mock"
	klaviyoMediaType     = "application/vnd.api+json"
)

// NewKlaviyoConfig creates a Klaviyo configuration with defaults
func NewKlaviyoConfig(privateKey string) *KlaviyoConfig {
	c := &KlaviyoConfig{PrivateKey: privateKey}
	c.Validate()
	return c
}

// Validate fills defaults. Every field has a usable default, so it never fails.
func (c *KlaviyoConfig) Validate() {
	if c.PrivateKey == "" {
		c.PrivateKey = KlaviyoMockKey
	}
	if c.ClientID == "" {
		c.ClientID = KlaviyoMockKey
	}
	if c.Revision == "" {
		c.Revision = KlaviyoDefaultRevision
	}
	if c.BaseURL == "" {
		c.BaseURL = KlaviyoDefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.AuthorizeURL == "" {
		c.AuthorizeURL = KlaviyoDefaultAuthorizeURL
	}
	if c.TokenURL == "" {
		c.TokenURL = KlaviyoDefaultTokenURL
	}
	if c.Scopes == "" {
		c.Scopes = KlaviyoDefaultScopes
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// IsMockTracking reports whether event writes are short-circuited.
func (c *KlaviyoConfig) IsMockTracking() bool {
	return c.PrivateKey == KlaviyoMockKey
}

// IsMockReads reports whether metric and event reads are skipped. Any
// pk_mock* key counts, which is broader than IsMockTracking.
func (c *KlaviyoConfig) IsMockReads() bool {
	return c.PrivateKey == "" || strings.HasPrefix(c.PrivateKey, klaviyoMockKeyPrefix)
}

// IsMockOAuth reports whether the OAuth callback should skip the code
// exchange and hand out KlaviyoMockAccessToken.
func (c *KlaviyoConfig) IsMockOAuth() bool {
	return strings.Contains(c.ClientID, "mock")
}

// OAuthAuthorizeURL returns the consent page URL for the OAuth app.
func (c *KlaviyoConfig) OAuthAuthorizeURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", c.Scopes)
	q.Set("state", state)
	return c.AuthorizeURL + "?" + q.Encode()
}
