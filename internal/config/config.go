// Package config handles loading and validation of service configuration.
// Supports development (env vars or CONFIG_FILE) and production, where the
// storefront token may come from Secret Manager.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/BurntSushi/toml"

	"storefront/internal/shopify"
	"storefront/internal/storage"
)

// Config holds all service configuration.
type Config struct {
	// Server settings
	Port        string `json:"port" toml:"port"`
	Environment string `json:"environment" toml:"environment"` // "development" or "production"
	LogLevel    string `json:"log_level" toml:"log_level"`     // "debug", "info", "warn", "error"

	// GCP settings, used when the token is kept in Secret Manager
	GCPProject  string `json:"gcp_project" toml:"gcp_project"`
	TokenSecret string `json:"token_secret" toml:"token_secret"`

	Shopify ShopifyConfig `json:"shopify" toml:"shopify"`
	Storage StorageConfig `json:"storage" toml:"storage"`

	// CheckoutHost is the canonical host checkout URLs are rewritten to.
	// Defaults to the store domain.
	CheckoutHost string `json:"checkout_host" toml:"checkout_host"`
}

// ShopifyConfig selects the storefront and how to reach it.
type ShopifyConfig struct {
	StoreDomain string `json:"store_domain" toml:"store_domain"`
	Token       string `json:"storefront_token" toml:"storefront_token"`
	APIVersion  string `json:"api_version" toml:"api_version"`
	ChromeTLS   bool   `json:"chrome_tls" toml:"chrome_tls"`
}

// StorageConfig selects where local cart state is kept.
type StorageConfig struct {
	Backend string `json:"backend" toml:"backend"` // memory, file or sqlite
	Path    string `json:"path" toml:"path"`
}

// ClientConfig maps the Shopify settings onto the GraphQL client's config.
func (c *Config) ClientConfig() shopify.Config {
	return shopify.Config{
		StoreDomain: c.Shopify.StoreDomain,
		Token:       c.Shopify.Token,
		APIVersion:  c.Shopify.APIVersion,
		ChromeTLS:   c.Shopify.ChromeTLS,
	}
}

// accessSecret reads a Secret Manager secret version. Replaced in tests.
var accessSecret = accessSecretVersion

// Load reads configuration from CONFIG_FILE when set, otherwise from the
// environment. In production a missing token is fetched from Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	var cfg *Config
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		if cfg, err = loadFromFile(path); err != nil {
			return nil, err
		}
	} else {
		cfg = loadFromEnv()
	}

	cfg.applyDefaults()

	if cfg.Shopify.Token == "" && cfg.Environment == "production" {
		if err := cfg.loadTokenFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading storefront token: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a TOML (.toml) or JSON file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

func loadFromEnv() *Config {
	chromeTLS, _ := strconv.ParseBool(os.Getenv("CHROME_TLS"))
	return &Config{
		Port:        os.Getenv("PORT"),
		Environment: os.Getenv("ENVIRONMENT"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		TokenSecret: os.Getenv("TOKEN_SECRET"),
		Shopify: ShopifyConfig{
			StoreDomain: os.Getenv("SHOPIFY_STORE_DOMAIN"),
			Token:       os.Getenv("SHOPIFY_STOREFRONT_TOKEN"),
			APIVersion:  os.Getenv("SHOPIFY_API_VERSION"),
			ChromeTLS:   chromeTLS,
		},
		Storage: StorageConfig{
			Backend: os.Getenv("STORAGE_BACKEND"),
			Path:    os.Getenv("STORAGE_PATH"),
		},
		CheckoutHost: os.Getenv("CHECKOUT_HOST"),
	}
}

func (c *Config) applyDefaults() {
	c.Port = withDefault(c.Port, "8080")
	c.Environment = withDefault(c.Environment, "development")
	c.LogLevel = withDefault(c.LogLevel, "info")
	c.Shopify.APIVersion = withDefault(c.Shopify.APIVersion, shopify.DefaultAPIVersion)
	c.Shopify.StoreDomain = extractDomain(c.Shopify.StoreDomain)
	c.Storage.Backend = withDefault(c.Storage.Backend, storage.BackendMemory)
	c.CheckoutHost = withDefault(extractDomain(c.CheckoutHost), c.Shopify.StoreDomain)
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadTokenFromSecretManager fetches the storefront token.
// Secret name format: projects/{project}/secrets/{token_secret}/versions/latest
func (c *Config) loadTokenFromSecretManager(ctx context.Context) error {
	if c.GCPProject == "" || c.TokenSecret == "" {
		return fmt.Errorf("GCP_PROJECT and TOKEN_SECRET required in production when no token is set")
	}
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.GCPProject, c.TokenSecret)

	data, err := accessSecret(ctx, name)
	if err != nil {
		return err
	}
	c.Shopify.Token = strings.TrimSpace(string(data))
	return nil
}

func accessSecretVersion(ctx context.Context, name string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("accessing secret %s: %w", name, err)
	}
	return result.Payload.Data, nil
}

var apiVersionPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Shopify.StoreDomain == "" {
		return fmt.Errorf("store_domain is required")
	}
	if c.Shopify.Token == "" {
		return fmt.Errorf("storefront_token is required")
	}
	if !apiVersionPattern.MatchString(c.Shopify.APIVersion) {
		return fmt.Errorf("invalid api_version %q: want YYYY-MM", c.Shopify.APIVersion)
	}

	switch c.Storage.Backend {
	case storage.BackendMemory:
	case storage.BackendFile, storage.BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	return nil
}

// extractDomain reduces a URL or bare host to its host[:port] part.
// Examples: "https://shop.example.com/" → "shop.example.com", "shop.example.com" → "shop.example.com"
func extractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		domain := strings.TrimPrefix(raw, "https://")
		return strings.Split(domain, "/")[0]
	}
	return u.Host
}
