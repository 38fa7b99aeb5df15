package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Placeholder credentials that switch integrations into mock mode
const (
	KlaviyoMockKey         = "pk_mock_key"
	DefaultOAuthStateToken = "velvet-dev-state-secret-change-me"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Log       LogConfig
	Cookie    CookieConfig
	Shopify   ShopifyConfig
	Klaviyo   KlaviyoConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Meshy     MeshyConfig
	Demo      DemoConfig
	OAuth     OAuthConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	BaseURL string // public URL used to build OAuth redirect URIs
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// CookieConfig holds settings for the session credential cookies
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool
	SameSite string // strict, lax, none
}

// ShopifyConfig holds Shopify app credentials
type ShopifyConfig struct {
	APIKey     string
	APISecret  string
	Scopes     string
	APIVersion string
	Timeout    time.Duration
}

// KlaviyoConfig holds Klaviyo API and OAuth settings
type KlaviyoConfig struct {
	PrivateKey   string
	ClientID     string
	ClientSecret string
	Revision     string
	BaseURL      string
	AuthorizeURL string
	TokenURL     string
	Scopes       string
	Timeout      time.Duration
}

// OpenAIConfig holds OpenAI API settings
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	ImageModel  string
	ImageSize   string
	MaxTokens   int
	Timeout     time.Duration
	MinInterval time.Duration // minimum spacing between requests
	MaxRetries  int           // retries on HTTP 429
}

// GeminiConfig holds Google Gemini settings
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional override, used by tests and proxies
}

// MeshyConfig holds Meshy image-to-3D settings
type MeshyConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DemoConfig holds the simulated latencies of the demo catalog
type DemoConfig struct {
	ListDelay     time.Duration
	GetDelay      time.Duration
	GenerateDelay time.Duration
	PublishDelay  time.Duration
}

// OAuthConfig holds OAuth state settings
type OAuthConfig struct {
	StateSecret string
	StateTTL    time.Duration
	NonceStore  string // memory, redis
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DatabaseConfig holds generation ledger database settings
type DatabaseConfig struct {
	Driver          string // sqlite, postgres
	Path            string // sqlite file path or ":memory:"
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// StorageConfig holds S3-compatible asset archive settings
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable tracing
	MetricsEnabled    bool    // Whether to export metrics
	LogsEnabled       bool    // Whether to export logs over OTLP
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable ledger query tracing (otelgorm)
	ProfilingEnabled  bool
	ProfilingServer   string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with VELVET_ prefix (e.g., VELVET_SHOPIFY_API_SECRET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("VELVET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			BaseURL: v.GetString("app.base_url"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Cookie: CookieConfig{
			Domain:   v.GetString("cookie.domain"),
			Path:     v.GetString("cookie.path"),
			Secure:   v.GetBool("cookie.secure"),
			SameSite: v.GetString("cookie.same_site"),
		},
		Shopify: ShopifyConfig{
			APIKey:     v.GetString("shopify.api_key"),
			APISecret:  v.GetString("shopify.api_secret"),
			Scopes:     v.GetString("shopify.scopes"),
			APIVersion: v.GetString("shopify.api_version"),
			Timeout:    v.GetDuration("shopify.timeout"),
		},
		Klaviyo: KlaviyoConfig{
			PrivateKey:   v.GetString("klaviyo.private_key"),
			ClientID:     v.GetString("klaviyo.client_id"),
			ClientSecret: v.GetString("klaviyo.client_secret"),
			Revision:     v.GetString("klaviyo.revision"),
			BaseURL:      v.GetString("klaviyo.base_url"),
			AuthorizeURL: v.GetString("klaviyo.authorize_url"),
			TokenURL:     v.GetString("klaviyo.token_url"),
			Scopes:       v.GetString("klaviyo.scopes"),
			Timeout:      v.GetDuration("klaviyo.timeout"),
		},
		OpenAI: OpenAIConfig{
			APIKey:      v.GetString("openai.api_key"),
			BaseURL:     v.GetString("openai.base_url"),
			VisionModel: v.GetString("openai.vision_model"),
			ImageModel:  v.GetString("openai.image_model"),
			ImageSize:   v.GetString("openai.image_size"),
			MaxTokens:   v.GetInt("openai.max_tokens"),
			Timeout:     v.GetDuration("openai.timeout"),
			MinInterval: v.GetDuration("openai.min_interval"),
			MaxRetries:  v.GetInt("openai.max_retries"),
		},
		Gemini: GeminiConfig{
			APIKey:  v.GetString("gemini.api_key"),
			Model:   v.GetString("gemini.model"),
			BaseURL: v.GetString("gemini.base_url"),
		},
		Meshy: MeshyConfig{
			APIKey:  v.GetString("meshy.api_key"),
			BaseURL: v.GetString("meshy.base_url"),
			Timeout: v.GetDuration("meshy.timeout"),
		},
		Demo: DemoConfig{
			ListDelay:     v.GetDuration("demo.list_delay"),
			GetDelay:      v.GetDuration("demo.get_delay"),
			GenerateDelay: v.GetDuration("demo.generate_delay"),
			PublishDelay:  v.GetDuration("demo.publish_delay"),
		},
		OAuth: OAuthConfig{
			StateSecret: v.GetString("oauth.state_secret"),
			StateTTL:    v.GetDuration("oauth.state_ttl"),
			NonceStore:  v.GetString("oauth.nonce_store"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("storage.enabled"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingServer:   v.GetString("telemetry.profiling_server"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "velvet-studio"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3000"
	}
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://localhost:3000"
	}
	cfg.App.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Generation requests wait on vision models for well over a minute
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 3 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 60
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Cookie.Path == "" {
		cfg.Cookie.Path = "/"
	}
	if cfg.Cookie.SameSite == "" {
		cfg.Cookie.SameSite = "lax"
	}

	if cfg.Shopify.Scopes == "" {
		cfg.Shopify.Scopes = "read_products,write_products"
	}
	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2024-01"
	}
	if cfg.Shopify.Timeout == 0 {
		cfg.Shopify.Timeout = 30 * time.Second
	}

	if cfg.Klaviyo.PrivateKey == "" {
		cfg.Klaviyo.PrivateKey = KlaviyoMockKey
	}
	if cfg.Klaviyo.ClientID == "" {
		cfg.Klaviyo.ClientID = KlaviyoMockKey
	}
	if cfg.Klaviyo.Revision == "" {
		cfg.Klaviyo.Revision = "2025-01-15"
	}
	if cfg.Klaviyo.BaseURL == "" {
		cfg.Klaviyo.BaseURL = "https://a.klaviyo.com"
	}
	if cfg.Klaviyo.AuthorizeURL == "" {
		cfg.Klaviyo.AuthorizeURL = "https://www.klaviyo.com/oauth/authorize"
	}
	if cfg.Klaviyo.TokenURL == "" {
		cfg.Klaviyo.TokenURL = "https://a.klaviyo.com/oauth/token"
	}
	if cfg.Klaviyo.Scopes == "" {
		cfg.Klaviyo.Scopes = "events:write profiles:write"
	}
	if cfg.Klaviyo.Timeout == 0 {
		cfg.Klaviyo.Timeout = 15 * time.Second
	}

	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.VisionModel == "" {
		cfg.OpenAI.VisionModel = "gpt-4o"
	}
	if cfg.OpenAI.ImageModel == "" {
		cfg.OpenAI.ImageModel = "dall-e-3"
	}
	if cfg.OpenAI.ImageSize == "" {
		cfg.OpenAI.ImageSize = "1024x1024"
	}
	if cfg.OpenAI.MaxTokens == 0 {
		cfg.OpenAI.MaxTokens = 4000
	}
	if cfg.OpenAI.Timeout == 0 {
		cfg.OpenAI.Timeout = 2 * time.Minute
	}
	if cfg.OpenAI.MinInterval == 0 {
		cfg.OpenAI.MinInterval = 100 * time.Millisecond
	}
	if cfg.OpenAI.MaxRetries == 0 {
		cfg.OpenAI.MaxRetries = 3
	}

	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-1.5-flash"
	}

	if cfg.Meshy.BaseURL == "" {
		cfg.Meshy.BaseURL = "https://api.meshy.ai"
	}
	if cfg.Meshy.Timeout == 0 {
		cfg.Meshy.Timeout = 30 * time.Second
	}

	if cfg.Demo.ListDelay == 0 {
		cfg.Demo.ListDelay = 800 * time.Millisecond
	}
	if cfg.Demo.GetDelay == 0 {
		cfg.Demo.GetDelay = 500 * time.Millisecond
	}
	if cfg.Demo.GenerateDelay == 0 {
		cfg.Demo.GenerateDelay = 3 * time.Second
	}
	if cfg.Demo.PublishDelay == 0 {
		cfg.Demo.PublishDelay = 1500 * time.Millisecond
	}

	if cfg.OAuth.StateSecret == "" {
		cfg.OAuth.StateSecret = DefaultOAuthStateToken
	}
	if cfg.OAuth.StateTTL == 0 {
		cfg.OAuth.StateTTL = 10 * time.Minute
	}
	if cfg.OAuth.NonceStore == "" {
		cfg.OAuth.NonceStore = "memory"
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "velvet.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "velvet"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "velvet-assets"
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.ProfilingServer == "" {
		cfg.Telemetry.ProfilingServer = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.OAuth.NonceStore != "memory" && c.OAuth.NonceStore != "redis" {
		return fmt.Errorf("oauth.nonce_store must be memory or redis, got %q", c.OAuth.NonceStore)
	}
	if _, err := url.Parse(c.App.BaseURL); err != nil {
		return fmt.Errorf("app.base_url is invalid: %w", err)
	}

	if c.App.Env == "production" {
		if c.Shopify.APISecret == "" {
			return fmt.Errorf("shopify.api_secret is required in production")
		}
		if c.OAuth.StateSecret == DefaultOAuthStateToken {
			return fmt.Errorf("oauth.state_secret must be set in production")
		}
		if len(c.OAuth.StateSecret) < 32 {
			return fmt.Errorf("oauth.state_secret must be at least 32 characters in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// RedirectURI builds an absolute callback URL under the app base URL.
func (a *AppConfig) RedirectURI(path string) string {
	return a.BaseURL + path
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
