package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"socialsched/console/internal/observability"
	"socialsched/console/internal/session"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("session expired")
	ErrRefreshFailed  = errors.New("refresh failed")
)

const refreshPath = "/auth/refresh"

// LoginRedirector is told when a session has been abandoned and the user has
// to sign in again.
type LoginRedirector interface {
	RedirectToLogin(reason error)
}

type RedirectFunc func(reason error)

func (f RedirectFunc) RedirectToLogin(reason error) { f(reason) }

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Session    *session.Manager
	Redirector LoginRedirector
	Logger     *slog.Logger
}

type Gateway struct {
	baseURL  string
	client   *http.Client
	session  *session.Manager
	redirect LoginRedirector
	log      *slog.Logger
}

func New(cfg Config) (*Gateway, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Session == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	redirect := cfg.Redirector
	if redirect == nil {
		redirect = RedirectFunc(func(error) {})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.Discard()
	}
	return &Gateway{
		baseURL:  base,
		client:   client,
		session:  cfg.Session,
		redirect: redirect,
		log:      logger,
	}, nil
}

func (g *Gateway) Session() *session.Manager { return g.session }

// Do sends req to path with the stored access credential. A 401 triggers one
// refresh and one retry; any other response is returned as is and the caller
// owns the body.
func (g *Gateway) Do(ctx context.Context, path string, req Request) (*http.Response, error) {
	return g.do(ctx, path, req, false)
}

// DoAnonymous sends req without credentials and without 401 handling.
func (g *Gateway) DoAnonymous(ctx context.Context, path string, req Request) (*http.Response, error) {
	httpReq, err := g.build(ctx, path, req, "")
	if err != nil {
		return nil, err
	}
	return g.client.Do(httpReq)
}

func (g *Gateway) do(ctx context.Context, path string, req Request, retried bool) (*http.Response, error) {
	access, err := g.session.AccessToken()
	if err != nil {
		return nil, err
	}

	httpReq, err := g.build(ctx, path, req, access)
	if err != nil {
		return nil, err
	}
	res, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusUnauthorized {
		return res, nil
	}
	drain(res)

	reqID := httpReq.Header.Get("X-Request-Id")
	if retried {
		g.log.Warn("request rejected after refresh", "path", path, "request_id", reqID)
		return nil, g.abandon(ErrUnauthorized, true)
	}

	tokens, err := g.session.Tokens()
	if err != nil {
		return nil, err
	}
	if tokens.Refresh == "" {
		g.log.Info("no refresh credential stored", "path", path, "request_id", reqID)
		return nil, g.abandon(ErrSessionExpired, false)
	}

	// Another call already refreshed while this one was in flight.
	if tokens.Access != "" && tokens.Access != access {
		g.log.Debug("retrying with credential refreshed elsewhere", "path", path, "request_id", reqID)
		return g.do(ctx, path, req, true)
	}

	if _, err := g.session.Refresh(ctx, tokens.Refresh, g.refresh); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		g.log.Warn("session refresh failed", "path", path, "request_id", reqID, "error", err)
		return nil, g.abandon(fmt.Errorf("%w: %v", ErrRefreshFailed, err), true)
	}
	g.log.Info("session refreshed, retrying", "path", path, "request_id", reqID)
	return g.do(ctx, path, req, true)
}

// abandon clears the access slot (and the refresh slot when clearRefresh is
// set), sends the user to login and returns cause.
func (g *Gateway) abandon(cause error, clearRefresh bool) error {
	var err error
	if clearRefresh {
		err = g.session.Clear()
	} else {
		err = g.session.ClearAccess()
	}
	if err != nil {
		g.log.Error("clear session", "error", err)
	}
	g.redirect.RedirectToLogin(cause)
	return cause
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (g *Gateway) refresh(ctx context.Context, refreshToken string) (session.Tokens, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return session.Tokens{}, err
	}
	httpReq, err := g.build(ctx, refreshPath, Request{Method: http.MethodPost, Body: body}, "")
	if err != nil {
		return session.Tokens{}, err
	}
	res, err := g.client.Do(httpReq)
	if err != nil {
		return session.Tokens{}, err
	}
	defer drain(res)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return session.Tokens{}, fmt.Errorf("refresh endpoint returned %d", res.StatusCode)
	}
	var out refreshResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return session.Tokens{}, fmt.Errorf("decode refresh response: %w", err)
	}
	return session.Tokens{Access: out.AccessToken, Refresh: out.RefreshToken}, nil
}

func (g *Gateway) build(ctx context.Context, path string, req Request, access string) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		body = bytes.NewReader(req.Form.body)
		contentType = req.Form.contentType
	case req.Body != nil:
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Content-Type", contentType)
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}
	if httpReq.Header.Get("X-Request-Id") == "" {
		httpReq.Header.Set("X-Request-Id", uuid.NewString())
	}
	return httpReq, nil
}

func drain(res *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
	_ = res.Body.Close()
}
