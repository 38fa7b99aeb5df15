package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/catalog"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum allowed response size from a platform API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const (
	shopifyVendor       = "shopify"
	shopifyListPageSize = 10
)

// ShopifyAdapter talks to the Shopify Admin REST API on behalf of the
// connected shop named in the request credentials.
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.StudioMetrics

	// baseURL resolves the Admin API origin for a shop domain
	baseURL func(shop string) string
}

// ShopifyOption configures a ShopifyAdapter
type ShopifyOption func(*ShopifyAdapter)

// WithShopifyLogger sets the adapter logger
func WithShopifyLogger(logger *zap.Logger) ShopifyOption {
	return func(a *ShopifyAdapter) {
		a.logger = logger
	}
}

// WithShopifyMetrics records vendor call latency
func WithShopifyMetrics(m *telemetry.StudioMetrics) ShopifyOption {
	return func(a *ShopifyAdapter) {
		a.metrics = m
	}
}

// WithShopifyHTTPClient replaces the default HTTP client
func WithShopifyHTTPClient(c *http.Client) ShopifyOption {
	return func(a *ShopifyAdapter) {
		a.httpClient = c
	}
}

// WithShopifyBaseURL overrides how a shop domain maps to an API origin.
// Tests point every shop at an httptest server with it.
func WithShopifyBaseURL(resolve func(shop string) string) ShopifyOption {
	return func(a *ShopifyAdapter) {
		a.baseURL = resolve
	}
}

// NewShopifyAdapter creates a new Shopify adapter with the given configuration
func NewShopifyAdapter(config *ShopifyConfig, opts ...ShopifyOption) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	a := &ShopifyAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
		baseURL:    func(shop string) string { return "https://" + shop },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the adapter configuration
func (a *ShopifyAdapter) Config() *ShopifyConfig {
	return a.config
}

func (a *ShopifyAdapter) adminURL(shop, path string) string {
	return fmt.Sprintf("%s/admin/api/%s/%s", a.baseURL(shop), a.config.APIVersion, path)
}

// validateNumericID validates that a string is a valid numeric ID
func validateNumericID(id string) error {
	if id == "" {
		return ErrShopifyInvalidProductID
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return fmt.Errorf("%w: %s", ErrShopifyInvalidProductID, id)
	}
	return nil
}

// requireStoreCredentials also refuses domains outside myshopify.com, since
// the access token is sent to whatever host the domain names.
func requireStoreCredentials(creds integration.StoreCredentials) error {
	if !creds.IsComplete() {
		return fmt.Errorf("%w: shopify store credentials", integration.ErrPlatformNotConfigured)
	}
	if !IsValidShopDomain(creds.Domain) {
		return fmt.Errorf("%w: %w", integration.ErrPlatformNotConfigured, ErrShopifyInvalidShopDomain)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// ListProducts returns up to ten active products of the shop
func (a *ShopifyAdapter) ListProducts(ctx context.Context, creds integration.StoreCredentials) ([]catalog.Product, error) {
	if err := requireStoreCredentials(creds); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(shopifyListPageSize))
	q.Set("status", "active")

	var resp shopifyProductsResponse
	endpoint := a.adminURL(creds.Domain, "products.json") + "?" + q.Encode()
	if err := a.doRequest(ctx, "list_products", creds, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	products := make([]catalog.Product, 0, len(resp.Products))
	for i := range resp.Products {
		products = append(products, resp.Products[i].toProduct())
	}
	return products, nil
}

// GetProduct fetches one product by its numeric id
func (a *ShopifyAdapter) GetProduct(ctx context.Context, creds integration.StoreCredentials, productID string) (*catalog.Product, error) {
	if err := requireStoreCredentials(creds); err != nil {
		return nil, err
	}
	if err := validateNumericID(productID); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrProductNotFound, err)
	}

	var resp shopifyProductResponse
	endpoint := a.adminURL(creds.Domain, "products/"+productID+".json")
	if err := a.doRequest(ctx, "get_product", creds, http.MethodGet, endpoint, nil, &resp); err != nil {
		if errors.Is(err, errShopifyNotFound) {
			return nil, integration.ErrProductNotFound
		}
		return nil, err
	}
	if resp.Product == nil {
		return nil, integration.ErrProductNotFound
	}

	product := resp.Product.toProduct()
	return &product, nil
}

// PublishModelURL stores modelURL in the velvet.model_url product metafield
func (a *ShopifyAdapter) PublishModelURL(ctx context.Context, creds integration.StoreCredentials, productID, modelURL string) error {
	if err := requireStoreCredentials(creds); err != nil {
		return err
	}
	if err := validateNumericID(productID); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrProductNotFound, err)
	}

	body := shopifyMetafieldRequest{
		Metafield: shopifyMetafield{
			Namespace: ShopifyMetafieldNamespace,
			Key:       ShopifyMetafieldKey,
			Value:     modelURL,
			Type:      "url",
		},
	}
	endpoint := a.adminURL(creds.Domain, "products/"+productID+"/metafields.json")
	if err := a.doRequest(ctx, "publish_metafield", creds, http.MethodPost, endpoint, body, nil); err != nil {
		if errors.Is(err, errShopifyNotFound) {
			return integration.ErrProductNotFound
		}
		return err
	}

	a.logger.Info("Published model URL to Shopify metafield",
		zap.String("shop", creds.Domain),
		zap.String("product_id", productID),
	)
	return nil
}

// ---------------------------------------------------------------------------
// OAuth
// ---------------------------------------------------------------------------

// ExchangeToken trades an authorization code for an offline access token
func (a *ShopifyAdapter) ExchangeToken(ctx context.Context, shop, code string) (string, error) {
	if err := ValidateShopDomain(shop); err != nil {
		return "", err
	}
	if a.config.APIKey == "" || a.config.APISecret == "" {
		return "", fmt.Errorf("%w: shopify app credentials", integration.ErrPlatformNotConfigured)
	}

	body := shopifyTokenRequest{
		ClientID:     a.config.APIKey,
		ClientSecret: a.config.APISecret,
		Code:         code,
	}
	var resp shopifyTokenResponse
	endpoint := a.baseURL(shop) + "/admin/oauth/access_token"
	creds := integration.StoreCredentials{Domain: shop}
	if err := a.doRequest(ctx, "exchange_token", creds, http.MethodPost, endpoint, body, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token received", integration.ErrPlatformAuthFailed)
	}
	return resp.AccessToken, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

var errShopifyNotFound = fmt.Errorf("%w: HTTP 404", integration.ErrPlatformRequestFailed)

func (a *ShopifyAdapter) doRequest(
	ctx context.Context,
	operation string,
	creds integration.StoreCredentials,
	method, endpoint string,
	body, out any,
) (err error) {
	ctx, span := telemetry.StartVendorSpan(ctx, shopifyVendor, operation,
		telemetry.WithAttribute(telemetry.SpanAttrShop, creds.Domain),
	)
	start := time.Now()
	defer func() {
		a.metrics.ObserveVendorCall(ctx, shopifyVendor, time.Since(start), err)
		telemetry.EndSpan(span, err)
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("shopify: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if creds.Token != "" {
		req.Header.Set("X-Shopify-Access-Token", creds.Token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errShopifyNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", integration.ErrPlatformAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		var apiErr shopifyErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Errors != nil {
			return fmt.Errorf("%w: HTTP %d: %v", integration.ErrPlatformRequestFailed, resp.StatusCode, apiErr.Errors)
		}
		return fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRequestFailed, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return nil
}

// Ensure ShopifyAdapter implements the Storefront port
var _ integration.Storefront = (*ShopifyAdapter)(nil)
