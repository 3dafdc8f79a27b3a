// Package ipamclient provides the main entry point for creating IPAM API clients
package ipamclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/ipam-client/internal/client"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// New creates a new IPAM API client. The caller's config is not modified.
func New(ctx context.Context, config *ipam.Config) (ipam.Client, error) {
	if config == nil {
		return nil, ipam.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, ipam.ErrAPIEndpointRequired
	}

	apiEndpoint, err := NormalizeEndpoint(config.APIEndpoint)
	if err != nil {
		return nil, err
	}

	normalized := *config
	normalized.APIEndpoint = apiEndpoint

	cli, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return cli, nil
}

// NormalizeEndpoint trims trailing slashes and defaults the scheme to https.
func NormalizeEndpoint(endpoint string) (string, error) {
	apiEndpoint := strings.TrimSpace(endpoint)
	if !strings.Contains(apiEndpoint, "://") {
		apiEndpoint = "https://" + apiEndpoint
	}

	parsed, err := url.Parse(apiEndpoint)
	if err != nil {
		return "", fmt.Errorf("parsing API endpoint: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: %s", ipam.ErrUnsupportedScheme, endpoint)
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("%w: %s", ipam.ErrNoHostInURL, endpoint)
	}

	return strings.TrimRight(apiEndpoint, "/"), nil
}

// NewWithEndpoint creates a new client with just an API endpoint (no auth).
func NewWithEndpoint(ctx context.Context, endpoint string) (ipam.Client, error) {
	return New(ctx, &ipam.Config{
		APIEndpoint: endpoint,
	})
}

// NewWithSession creates a client reusing an existing session cookie.
func NewWithSession(ctx context.Context, endpoint, sessionID, csrfToken string) (ipam.Client, error) {
	return New(ctx, &ipam.Config{
		APIEndpoint: endpoint,
		SessionID:   sessionID,
		CSRFToken:   csrfToken,
	})
}

// NewWithPassword creates a client and logs in with username and password.
func NewWithPassword(ctx context.Context, endpoint, username, password string) (ipam.Client, error) {
	return New(ctx, &ipam.Config{
		APIEndpoint: endpoint,
		Username:    username,
		Password:    password,
	})
}
