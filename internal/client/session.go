package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/ipam-client/internal/auth"
	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/internal/http"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// SessionClient implements ipam.SessionClient on top of the cookie session.
type SessionClient struct {
	httpClient *http.Client
	manager    *auth.SessionManager
	users      *UsersClient
}

// NewSessionClient creates the session client.
func NewSessionClient(httpClient *http.Client, manager *auth.SessionManager, users *UsersClient) *SessionClient {
	return &SessionClient{
		httpClient: httpClient,
		manager:    manager,
		users:      users,
	}
}

// FetchCSRFToken asks the backend for a new CSRF token. The response also
// sets the csrftoken cookie.
func (c *SessionClient) FetchCSRFToken(ctx context.Context) (string, error) {
	resp, err := c.httpClient.Get(ctx, constants.APIPathCSRF, nil)
	if err != nil {
		return "", fmt.Errorf("getting csrf token: %w", err)
	}

	var token ipam.CSRFToken

	err = json.Unmarshal(resp.Body, &token)
	if err != nil {
		return "", fmt.Errorf("parsing csrf token response: %w", err)
	}

	if token.Token == "" {
		return c.httpClient.Cookie(constants.CSRFCookieName), nil
	}

	return token.Token, nil
}

// CSRFToken implements ipam.SessionClient.CSRFToken.
func (c *SessionClient) CSRFToken(ctx context.Context) (string, error) {
	token, err := c.manager.CSRFToken(ctx)
	if err != nil {
		return "", fmt.Errorf("getting csrf token: %w", err)
	}

	return token, nil
}

// Login implements ipam.SessionClient.Login.
func (c *SessionClient) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ipam.ErrNotAuthenticated
	}

	_, err := c.httpClient.Post(ctx, constants.APIPathLogin, &ipam.Credentials{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("logging in as %s: %w", username, err)
	}

	// The backend rotates the CSRF token on login.
	c.manager.Invalidate()
	c.manager.SetSession(c.httpClient.Cookie(constants.SessionCookieName))

	return nil
}

// Logout implements ipam.SessionClient.Logout.
func (c *SessionClient) Logout(ctx context.Context) error {
	_, err := c.httpClient.Post(ctx, constants.APIPathLogout, nil)
	if err != nil && !ipam.IsUnauthorized(err) && !ipam.IsForbidden(err) {
		return fmt.Errorf("logging out: %w", err)
	}

	c.httpClient.ClearSession(ctx)
	c.manager.Clear()

	return nil
}

// Me implements ipam.SessionClient.Me.
func (c *SessionClient) Me(ctx context.Context) (*ipam.User, error) {
	return c.users.Me(ctx)
}

// Current implements ipam.SessionClient.Current.
func (c *SessionClient) Current() (string, string) {
	sessionID, csrfToken := c.manager.Session()
	if sessionID == "" {
		sessionID = c.httpClient.Cookie(constants.SessionCookieName)
	}

	if csrfToken == "" {
		csrfToken = c.httpClient.Cookie(constants.CSRFCookieName)
	}

	return sessionID, csrfToken
}
