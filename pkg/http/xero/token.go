package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	fetchhttp "github.com/vpnda/billing-sync/pkg/http"
)

// Token is the identity provider's answer to a client-credentials grant.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// AccessToken exchanges the client id/secret for a bearer token. A new token
// is requested on every call.
func (c *Client) AccessToken(ctx context.Context) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("scope", Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if !fetchhttp.IsSuccess(resp.StatusCode) {
		return nil, &TokenError{StatusError: fetchhttp.NewStatusError(resp)}
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if token.AccessToken == "" {
		return nil, &TokenError{
			StatusError: fetchhttp.StatusError{StatusCode: resp.StatusCode},
			Reason:      "response did not contain an access_token",
		}
	}

	return &token, nil
}
