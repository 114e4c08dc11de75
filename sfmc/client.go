// Package sfmc talks to the Salesforce Marketing Cloud REST API: it exchanges
// client credentials for a bearer token and posts rowsets to a data extension.
package sfmc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type Config struct {
	Subdomain    string `json:"SFMC_SUBDOMAIN"`
	ClientID     string `json:"SFMC_CLIENT_ID"`
	ClientSecret string `json:"SFMC_CLIENT_SECRET"`
	ExternalKey  string `json:"SFMC_DE_EXTERNAL_KEY"`
}

// Client is a HTTP client for a single marketing cloud tenant
type Client struct {
	AuthURL    *url.URL
	RestURL    *url.URL
	HTTPClient *http.Client

	config Config
}

func AuthURL(subdomain string) string {
	return fmt.Sprintf("https://%v.auth.marketingcloudapis.com", subdomain)
}

func RestURL(subdomain string) string {
	return fmt.Sprintf("https://%v.rest.marketingcloudapis.com", subdomain)
}

func New(config Config, httpClient *http.Client) (*Client, error) {
	if config.Subdomain == "" {
		return nil, fmt.Errorf("missing sfmc subdomain")
	}
	authURL, err := url.Parse(AuthURL(config.Subdomain))
	if err != nil {
		return nil, fmt.Errorf("invalid sfmc auth url: %w", err)
	}
	restURL, err := url.Parse(RestURL(config.Subdomain))
	if err != nil {
		return nil, fmt.Errorf("invalid sfmc rest url: %w", err)
	}
	return NewWithURLs(config, authURL, restURL, httpClient), nil
}

// NewWithURLs builds a client against explicit base urls, e.g. a test server.
func NewWithURLs(config Config, authURL, restURL *url.URL, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		AuthURL:    authURL,
		RestURL:    restURL,
		HTTPClient: httpClient,
		config:     config,
	}
}

// newRequest creates a JSON POST request relative to base
func (c *Client) newRequest(ctx context.Context, base *url.URL, path string, body interface{}) (*http.Request, error) {
	p, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u := base.ResolveReference(p)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends the request and returns the status code and full response body
func (c *Client) do(req *http.Request) (int, []byte, error) {
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return res.StatusCode, body, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}

// snippet keeps error messages readable when the remote returns an html page
func snippet(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
