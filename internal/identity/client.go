// Package identity talks to the OpenID Connect identity provider that owns
// accounts, credentials and realm roles. The rest of the application only
// mirrors provider accounts; all account mutations go through this client.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// User is a provider account in its brief representation.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Token is the provider's token endpoint response.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Provider is the account surface the services depend on. *Client implements
// it against a real provider; tests substitute fakes.
type Provider interface {
	Login(ctx context.Context, username, password string) (*Token, error)
	Register(ctx context.Context, email, username, password string) (*User, error)
	Users(ctx context.Context) ([]User, error)
	Roles(ctx context.Context, userID string) ([]string, error)
	GrantRole(ctx context.Context, userID, role string) error
	RevokeRole(ctx context.Context, userID, role string) error
	DeleteUser(ctx context.Context, userID string) error
	LogoutURL(redirect string) string
}

// ErrorStatus is returned when the provider answers with a non-2xx status.
type ErrorStatus struct {
	StatusCode int
	Body       string
}

func (e *ErrorStatus) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.StatusCode, e.Body)
}

// Config carries the provider coordinates and the admin service account used
// for account provisioning.
type Config struct {
	BaseURL       string
	Realm         string
	ClientID      string
	ClientSecret  string
	AdminUsername string
	AdminPassword string
}

// Client is a minimal Keycloak-compatible admin and token client.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu          sync.Mutex
	adminToken  string
	adminExpiry time.Time
}

// NewClient creates a provider client. The base URL must not end with a slash.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges user credentials for tokens using the password grant.
// Usernames are case-insensitive at the provider; send them lowercased.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {c.cfg.ClientID},
		"username":   {strings.ToLower(username)},
		"password":   {password},
		"scope":      {"openid"},
	}
	if c.cfg.ClientSecret != "" {
		form.Set("client_secret", c.cfg.ClientSecret)
	}
	return c.tokenRequest(ctx, c.cfg.Realm, form)
}

// Register creates a provider account with a permanent password and returns
// its brief representation.
func (c *Client) Register(ctx context.Context, email, username, password string) (*User, error) {
	body := map[string]any{
		"username": username,
		"email":    email,
		"enabled":  true,
		"credentials": []map[string]any{
			{"type": "password", "value": password, "temporary": false},
		},
	}

	resp, err := c.adminRequest(ctx, http.MethodPost, c.adminPath("/users"), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp)
	}

	// The created resource rides on the Location header.
	location := resp.Header.Get("Location")
	if i := strings.LastIndex(location, "/"); i >= 0 && i < len(location)-1 {
		return &User{ID: location[i+1:], Username: username}, nil
	}
	return c.userByUsername(ctx, username)
}

// Users lists every account in the realm.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	resp, err := c.adminRequest(ctx, http.MethodGet, c.adminPath("/users?max=10000&briefRepresentation=true"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("failed to decode user list: %w", err)
	}
	return users, nil
}

// Roles returns the realm roles mapped to the account.
func (c *Client) Roles(ctx context.Context, userID string) ([]string, error) {
	resp, err := c.adminRequest(ctx, http.MethodGet, c.adminPath("/users/"+userID+"/role-mappings/realm"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var reps []roleRepresentation
	if err := json.NewDecoder(resp.Body).Decode(&reps); err != nil {
		return nil, fmt.Errorf("failed to decode role mappings: %w", err)
	}

	roles := make([]string, 0, len(reps))
	for _, rep := range reps {
		roles = append(roles, rep.Name)
	}
	return roles, nil
}

// GrantRole maps a realm role onto the account.
func (c *Client) GrantRole(ctx context.Context, userID, role string) error {
	return c.mapRole(ctx, http.MethodPost, userID, role)
}

// RevokeRole removes a realm role mapping from the account.
func (c *Client) RevokeRole(ctx context.Context, userID, role string) error {
	return c.mapRole(ctx, http.MethodDelete, userID, role)
}

// DeleteUser removes the account from the provider.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	resp, err := c.adminRequest(ctx, http.MethodDelete, c.adminPath("/users/"+userID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// LogoutURL is the provider's front-channel logout endpoint. Browsers are
// redirected there so the provider session ends along with ours.
func (c *Client) LogoutURL(redirect string) string {
	u := c.cfg.BaseURL + "/realms/" + c.cfg.Realm + "/protocol/openid-connect/logout"
	if redirect != "" {
		u += "?redirect_uri=" + url.QueryEscape(redirect)
	}
	return u
}

type roleRepresentation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) mapRole(ctx context.Context, method, userID, role string) error {
	resp, err := c.adminRequest(ctx, http.MethodGet, c.adminPath("/roles/"+url.PathEscape(role)), nil)
	if err != nil {
		return err
	}
	var rep roleRepresentation
	if resp.StatusCode != http.StatusOK {
		err = statusError(resp)
	} else {
		err = json.NewDecoder(resp.Body).Decode(&rep)
	}
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to resolve realm role %q: %w", role, err)
	}

	resp, err = c.adminRequest(ctx, method, c.adminPath("/users/"+userID+"/role-mappings/realm"), []roleRepresentation{rep})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func (c *Client) userByUsername(ctx context.Context, username string) (*User, error) {
	path := c.adminPath("/users?exact=true&username=" + url.QueryEscape(username))
	resp, err := c.adminRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("failed to decode user lookup: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("account %q not found after creation", username)
	}
	return &users[0], nil
}

// tokenRequest posts a form to the realm's token endpoint.
func (c *Client) tokenRequest(ctx context.Context, realm string, form url.Values) (*Token, error) {
	endpoint := c.cfg.BaseURL + "/realms/" + realm + "/protocol/openid-connect/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &token, nil
}

// adminToken returns a cached admin access token, refreshing it through the
// master realm's admin-cli client when it is missing or about to expire.
func (c *Client) getAdminToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.adminToken != "" && time.Now().Before(c.adminExpiry) {
		return c.adminToken, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {"admin-cli"},
		"username":   {c.cfg.AdminUsername},
		"password":   {c.cfg.AdminPassword},
	}
	token, err := c.tokenRequest(ctx, "master", form)
	if err != nil {
		return "", fmt.Errorf("failed to obtain admin token: %w", err)
	}

	c.adminToken = token.AccessToken
	// Renew slightly early so in-flight requests never carry a stale token.
	c.adminExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - 10*time.Second)
	return c.adminToken, nil
}

func (c *Client) adminPath(suffix string) string {
	return c.cfg.BaseURL + "/admin/realms/" + c.cfg.Realm + suffix
}

func (c *Client) adminRequest(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	token, err := c.getAdminToken(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &ErrorStatus{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}
