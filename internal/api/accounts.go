package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"socialsched/console/internal/gateway"
)

func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.call(ctx, http.MethodGet, "/accounts/", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) DisconnectAccount(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, gateway.Path("/posts/accounts", id), nil, nil)
}

func (c *Client) ListPlatforms(ctx context.Context) ([]Platform, error) {
	var out struct {
		Platforms []Platform `json:"platforms"`
	}
	if err := c.call(ctx, http.MethodGet, "/posts/platforms", nil, &out); err != nil {
		return nil, err
	}
	return out.Platforms, nil
}

func (c *Client) OAuthURL(ctx context.Context, platform string) (OAuthStart, error) {
	platform = strings.TrimSpace(platform)
	if platform == "" {
		return OAuthStart{}, fmt.Errorf("platform is required")
	}
	var out OAuthStart
	if err := c.call(ctx, http.MethodPost, "/posts/connect/oauth-url", map[string]string{"platform": platform}, &out); err != nil {
		return OAuthStart{}, err
	}
	if out.URL == "" {
		return OAuthStart{}, fmt.Errorf("backend returned no authorization URL for %s", platform)
	}
	return out, nil
}

// OAuthCallback relays the provider's code and state. The backend reports
// linking failures in the body, so success=false is an *APIError as well.
func (c *Client) OAuthCallback(ctx context.Context, code, state string) error {
	if code == "" || state == "" {
		return fmt.Errorf("code and state are required")
	}
	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	body := map[string]string{"code": code, "state": state}
	if err := c.call(ctx, http.MethodPost, "/posts/connect/callback", body, &out); err != nil {
		return err
	}
	if !out.Success {
		detail := out.Error
		if detail == "" {
			detail = "account linking failed"
		}
		return &APIError{StatusCode: http.StatusOK, Detail: detail}
	}
	return nil
}
