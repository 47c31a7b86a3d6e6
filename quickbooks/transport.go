package quickbooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"
)

const minorVersion = "70"

func BaseURL(environment string) string {
	if environment == EnvironmentProduction {
		return "https://quickbooks.api.intuit.com"
	}
	return "https://sandbox-quickbooks.api.intuit.com"
}

type Response struct {
	StatusCode int
	Data       []byte
}

// Transport handles low-level HTTP and authentication against one realm.
// It is stateless apart from the bearer token it was built with; the
// connection manager hands out a fresh one per sync pass.
type Transport struct {
	BaseURL     string
	RealmID     string
	AccessToken string
	HTTPClient  *http.Client
}

func NewTransport(baseURL, realmID, accessToken string) *Transport {
	return &Transport{
		BaseURL:     baseURL,
		RealmID:     realmID,
		AccessToken: accessToken,
		// a stuck call must not stall the periodic job
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// helper: build full company URL with query params
func (t *Transport) buildURL(path string, query map[string]string) string {
	u, _ := url.Parse(fmt.Sprintf("%s/v3/company/%s%s", t.BaseURL, t.RealmID, path))
	q := u.Query()
	q.Set("minorversion", minorVersion)
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (t *Transport) do(req *http.Request) (*Response, error) {
	req.Header.Set("Accept", "application/json")
	if t.AccessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.AccessToken))
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return nil, &RateLimitError{RetryAfterSeconds: retryAfter}
	case resp.StatusCode >= 300:
		return nil, newAPIError(resp.StatusCode, body)
	case resp.StatusCode == http.StatusNoContent || len(body) == 0:
		return &Response{StatusCode: resp.StatusCode}, nil
	}

	return &Response{StatusCode: resp.StatusCode, Data: body}, nil
}

// Post sends a POST request with JSON body
func (t *Transport) Post(path string, data any, query map[string]string) (*Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, t.buildURL(path, query), bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return t.do(req)
}

// Get sends a GET request
func (t *Transport) Get(path string, query map[string]string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, t.buildURL(path, query), nil)
	if err != nil {
		return nil, err
	}
	return t.do(req)
}
