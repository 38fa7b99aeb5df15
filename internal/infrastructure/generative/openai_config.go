package generative

import (
	"strings"
	"time"
)

// OpenAIConfig holds configuration for the OpenAI chat and image APIs
type OpenAIConfig struct {
	// APIKey authenticates requests. An empty key disables the adapter.
	APIKey string
	// BaseURL is the API root including the version path
	BaseURL string
	// VisionModel answers the geometry reconstruction prompt
	VisionModel string
	// ImageModel renders variant images
	ImageModel string
	ImageSize  string
	MaxTokens  int
	Timeout    time.Duration

	// MinInterval spaces consecutive requests from this process
	MinInterval time.Duration
	// MaxRetries bounds the retries of a rate limited (HTTP 429) request
	MaxRetries int
}

const (
	OpenAIDefaultBaseURL     = "https://api.openai.com/v1"
	OpenAIDefaultVisionModel = "gpt-4o"
	OpenAIDefaultImageModel  = "dall-e-3"
	OpenAIDefaultImageSize   = "1024x1024"
	OpenAIDefaultMaxTokens   = 4000
)

// NewOpenAIConfig creates an OpenAI configuration with defaults
func NewOpenAIConfig(apiKey string) *OpenAIConfig {
	c := &OpenAIConfig{APIKey: apiKey}
	c.Validate()
	return c
}

// Validate fills defaults for unset fields.
func (c *OpenAIConfig) Validate() {
	if c.BaseURL == "" {
		c.BaseURL = OpenAIDefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.VisionModel == "" {
		c.VisionModel = OpenAIDefaultVisionModel
	}
	if c.ImageModel == "" {
		c.ImageModel = OpenAIDefaultImageModel
	}
	if c.ImageSize == "" {
		c.ImageSize = OpenAIDefaultImageSize
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = OpenAIDefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.MinInterval < 0 {
		c.MinInterval = 0
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
}

// IsConfigured reports whether an API key is present
func (c *OpenAIConfig) IsConfigured() bool {
	return c.APIKey != ""
}
