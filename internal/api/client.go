package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"socialsched/console/internal/gateway"
)

const maxErrorBody = 1 << 20

// APIError is a non-OK response. Detail is the backend's own message and is
// meant to be shown to the user as is.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Detail)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type Client struct {
	gw           *gateway.Gateway
	statusMethod string
}

type Options struct {
	// StatusMethod is the verb used on /posts/{id}/status. PATCH when empty.
	StatusMethod string
}

func New(gw *gateway.Gateway, opts Options) (*Client, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	method := strings.ToUpper(strings.TrimSpace(opts.StatusMethod))
	switch method {
	case "":
		method = http.MethodPatch
	case http.MethodPatch, http.MethodPut:
	default:
		return nil, fmt.Errorf("unsupported status method %q", opts.StatusMethod)
	}
	return &Client{gw: gw, statusMethod: method}, nil
}

func (c *Client) Gateway() *gateway.Gateway { return c.gw }

// call sends a JSON request (in may be nil) and decodes the response into out
// when out is non-nil.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	req := gateway.Request{Method: method}
	if in != nil {
		var err error
		if req, err = gateway.JSON(method, in); err != nil {
			return err
		}
	}
	return c.send(ctx, path, req, out)
}

func (c *Client) send(ctx context.Context, path string, req gateway.Request, out any) error {
	res, err := c.gw.Do(ctx, path, req)
	if err != nil {
		return err
	}
	return decode(res, out)
}

func decode(res *http.Response, out any) error {
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return newAPIError(res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newAPIError(res *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	return &APIError{StatusCode: res.StatusCode, Detail: errorDetail(res.StatusCode, body)}
}

// errorDetail picks the backend message: "detail" first, then "error". A
// structured detail (validation errors) is kept as compact JSON.
func errorDetail(status int, body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"detail", "error"} {
			raw, ok := fields[key]
			if !ok || string(raw) == "null" {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				if s != "" {
					return s
				}
				continue
			}
			var buf bytes.Buffer
			if err := json.Compact(&buf, raw); err == nil {
				return buf.String()
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") && len(text) < 512 {
		return text
	}
	return http.StatusText(status)
}
