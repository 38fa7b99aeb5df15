package ecommerce

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/velvet/backend/internal/domain/catalog"
)

// ---------------------------------------------------------------------------
// Admin REST payloads
// ---------------------------------------------------------------------------

type shopifyProductsResponse struct {
	Products []shopifyProduct `json:"products"`
}

type shopifyProductResponse struct {
	Product *shopifyProduct `json:"product"`
}

type shopifyProduct struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	BodyHTML string           `json:"body_html"`
	Vendor   string           `json:"vendor"`
	Status   string           `json:"status"`
	Images   []shopifyImage   `json:"images"`
	Variants []shopifyVariant `json:"variants"`
}

type shopifyImage struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

type shopifyVariant struct {
	ID    int64  `json:"id"`
	Price string `json:"price"`
	SKU   string `json:"sku"`
}

type shopifyMetafieldRequest struct {
	Metafield shopifyMetafield `json:"metafield"`
}

type shopifyMetafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type shopifyTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
}

type shopifyTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

type shopifyErrorResponse struct {
	Errors any `json:"errors"`
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>?`)

// stripHTML removes tags from a product body.
func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

// toProduct maps an Admin API product to the catalog read model.
func (p *shopifyProduct) toProduct() catalog.Product {
	description := stripHTML(p.BodyHTML)
	if description == "" {
		description = p.Title
	}

	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.Src != "" {
			images = append(images, img.Src)
		}
	}

	price := "0.00"
	if len(p.Variants) > 0 && p.Variants[0].Price != "" {
		price = p.Variants[0].Price
	}

	return catalog.Product{
		ID:          strconv.FormatInt(p.ID, 10),
		Title:       p.Title,
		Description: description,
		Images:      images,
		Price:       catalog.ParsePrice(price),
		Vendor:      p.Vendor,
		Source:      catalog.SourceShopify,
	}
}
