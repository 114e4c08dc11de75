package sfmc

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

const tokenPath = "/v2/token"

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// FetchToken performs a client-credentials exchange. Tokens are never cached;
// every call is a fresh round trip.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, c.AuthURL, tokenPath, tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
	})
	if err != nil {
		return "", &AuthError{Err: err}
	}

	status, body, err := c.do(req)
	if err != nil {
		return "", &AuthError{StatusCode: status, Err: err}
	}
	if !ok(status) {
		return "", &AuthError{StatusCode: status, Body: snippet(body)}
	}

	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", &AuthError{StatusCode: status, Err: fmt.Errorf("response did not contain an access_token")}
	}
	return token, nil
}
