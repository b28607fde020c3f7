package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/transport"
)

// =============================================================================
// STOREFRONT API CLIENT
// =============================================================================
//
// The Storefront API is a single GraphQL endpoint per store and API version:
//
//   POST https://{store}/api/{version}/graphql.json
//   X-Shopify-Storefront-Access-Token: {token}
//
// Failure classes, in the order they are checked:
//   1. network failure or non-2xx status → typed transport error
//   2. top-level "errors" array          → GRAPHQL_ERROR, fatal for the call
//   3. mutation "userErrors"             → USER_ERROR with the first message
// =============================================================================

const (
	// DefaultAPIVersion is the Storefront API version used when none is configured.
	DefaultAPIVersion = "2024-07"

	tokenHeader = "X-Shopify-Storefront-Access-Token"
	userAgent   = "Storefront/1.0"

	requestTimeout = 30 * time.Second
)

// Config holds Storefront API client configuration.
type Config struct {
	StoreDomain string // e.g., "example.myshopify.com"
	Token       string // Public storefront access token
	APIVersion  string // Default: DefaultAPIVersion
	ChromeTLS   bool   // Present a Chrome TLS fingerprint (see internal/transport)

	// Endpoint overrides the URL derived from StoreDomain and APIVersion.
	Endpoint string
}

// Client is the Storefront GraphQL client. It implements adapter.Adapter.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// New creates a Storefront API client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("storefront access token is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.StoreDomain == "" {
			return nil, fmt.Errorf("store domain is required")
		}
		version := cfg.APIVersion
		if version == "" {
			version = DefaultAPIVersion
		}
		endpoint = EndpointURL(cfg.StoreDomain, version)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport.New(transport.Options{ChromeTLS: cfg.ChromeTLS, Timeout: requestTimeout}),
		},
		endpoint: endpoint,
		token:    cfg.Token,
	}, nil
}

// EndpointURL builds the GraphQL endpoint for a store domain and API version.
// A scheme on domain is tolerated and replaced with https.
func EndpointURL(domain, version string) string {
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimSuffix(domain, "/")
	return fmt.Sprintf("https://%s/api/%s/graphql.json", domain, version)
}

// Query executes a GraphQL document and decodes its data into out.
// out may be nil when only success matters.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(tokenHeader, c.token)

	var resp graphQLResponse
	if err := c.do(req, &resp); err != nil {
		return err
	}

	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return model.NewGraphQLError(messages)
	}

	if out != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("parsing response data: %w", err)
		}
	}
	return nil
}

// do executes the request and decodes the response envelope.
func (c *Client) do(req *http.Request, result *graphQLResponse) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("Shopify", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewUpstreamError("Shopify", fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return model.NewUpstreamError("Shopify", fmt.Errorf("parsing response: %w", err))
	}
	return nil
}

// parseError converts a non-2xx Storefront API response to model.APIError.
func parseError(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return model.NewUnauthorizedError("Shopify storefront token rejected")
	case http.StatusForbidden:
		return model.NewUnauthorizedError("Shopify storefront access denied")
	case http.StatusTooManyRequests:
		return model.NewRateLimitError("Shopify")
	default:
		return model.NewUpstreamError("Shopify",
			fmt.Errorf("status %d: %s", statusCode, errorMessage(body)))
	}
}

// errorMessage extracts a readable message from an error body (best effort).
func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Errors) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if json.Unmarshal(eb.Errors, &s) == nil {
		return s
	}
	var list []graphQLError
	if json.Unmarshal(eb.Errors, &list) == nil && len(list) > 0 {
		return list[0].Message
	}
	return string(eb.Errors)
}
