package payroll

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	intuitAuthorizeURL = "https://appcenter.intuit.com/connect/oauth2"
	intuitTokenURL     = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	intuitRevokeURL    = "https://developer.api.intuit.com/v2/oauth2/tokens/revoke"

	oauthScope = "com.intuit.quickbooks.accounting"
)

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// overridable for tests
	AuthorizeURL string
	TokenURL     string
	RevokeURL    string
}

type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	TokenType             string `json:"token_type"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshTokenExpiresIn int64  `json:"x_refresh_token_expires_in"`
}

// OAuthClient speaks Intuit's OAuth2 endpoints: authorization-code and
// refresh-token grants plus best-effort revocation.
type OAuthClient struct {
	Config     OAuthConfig
	HTTPClient *http.Client
}

func NewOAuthClient(cfg OAuthConfig) *OAuthClient {
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = intuitAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = intuitTokenURL
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = intuitRevokeURL
	}
	return &OAuthClient{
		Config:     cfg,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthorizeURL builds the redirect that starts the authorization flow, with
// the signed state token bound to the tenant.
func (c *OAuthClient) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.Config.ClientID)
	q.Set("response_type", "code")
	q.Set("scope", oauthScope)
	q.Set("redirect_uri", c.Config.RedirectURI)
	q.Set("state", state)
	return c.Config.AuthorizeURL + "?" + q.Encode()
}

// ExchangeCode trades an authorization code for a token pair.
func (c *OAuthClient) ExchangeCode(code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.Config.RedirectURI)

	tok, status, err := c.tokenRequest(form)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("code exchange failed with status %d", status)
	}
	return tok, nil
}

// Refresh rotates the token pair. A 400/401 means the provider no longer
// honors the refresh token; that is surfaced as ErrTokenRevoked and must not
// be retried.
func (c *OAuthClient) Refresh(refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	tok, status, err := c.tokenRequest(form)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return nil, ErrTokenRevoked
	}
	if status >= 300 {
		return nil, fmt.Errorf("token refresh failed with status %d", status)
	}
	return tok, nil
}

// Revoke invalidates a token at the provider. Callers treat failures as
// non-fatal; the local disconnect goes ahead regardless.
func (c *OAuthClient) Revoke(token string) error {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.Config.RevokeURL, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.Config.ClientID, c.Config.ClientSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("token revocation failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *OAuthClient) tokenRequest(form url.Values) (*TokenResponse, int, error) {
	req, err := http.NewRequest(http.MethodPost, c.Config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.SetBasicAuth(c.Config.ClientID, c.Config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var tok TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &tok, resp.StatusCode, nil
}
