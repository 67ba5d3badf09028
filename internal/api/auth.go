package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"socialsched/console/internal/gateway"
	"socialsched/console/internal/session"
	"socialsched/console/internal/workflow"
)

var ErrMissingCredentials = errors.New("username and password are required")

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Login exchanges a username and password for a credential pair and stores
// it. The request is sent without any stored credential.
func (c *Client) Login(ctx context.Context, username, password string) (session.Tokens, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return session.Tokens{}, ErrMissingCredentials
	}
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	res, err := c.gw.DoAnonymous(ctx, "/auth/token", gateway.URLEncoded(http.MethodPost, form))
	if err != nil {
		return session.Tokens{}, err
	}
	var out tokenResponse
	if err := decode(res, &out); err != nil {
		return session.Tokens{}, err
	}
	tokens := session.Tokens{Access: out.AccessToken, Refresh: out.RefreshToken}
	if tokens.Access == "" {
		return session.Tokens{}, fmt.Errorf("store credentials: %w", session.ErrEmptyAccessToken)
	}
	if err := c.gw.Session().Clear(); err != nil {
		return session.Tokens{}, err
	}
	if err := c.gw.Session().SetTokens(tokens); err != nil {
		return session.Tokens{}, fmt.Errorf("store credentials: %w", err)
	}
	return tokens, nil
}

// Logout forgets the stored credentials. The backend keeps no session state
// to revoke.
func (c *Client) Logout() error {
	return c.gw.Session().Clear()
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return User{}, err
	}
	u.Role = workflow.ParseRole(string(u.Role))
	return u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.call(ctx, http.MethodGet, "/auth/admin/users", nil, &users); err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Role = workflow.ParseRole(string(users[i].Role))
	}
	return users, nil
}

func (c *Client) SetUserRole(ctx context.Context, userID int64, role workflow.Role) error {
	if role != workflow.RoleAdmin && role != workflow.RoleUser {
		return fmt.Errorf("unknown role %q", role)
	}
	path := gateway.Path("/auth/admin/users", userID, "role")
	return c.call(ctx, http.MethodPost, path, map[string]workflow.Role{"role": role}, nil)
}
