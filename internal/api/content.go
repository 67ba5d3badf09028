package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"socialsched/console/internal/gateway"
)

func ParseContentMode(s string) (ContentMode, bool) {
	m := ContentMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeManual, ModeAuto:
		return m, true
	}
	return "", false
}

func (c *Client) CreateContent(ctx context.Context, in ContentInput) (Content, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Content{}, fmt.Errorf("content title is required")
	}
	switch in.Mode {
	case ModeManual:
		if strings.TrimSpace(in.ContentText) == "" {
			return Content{}, fmt.Errorf("manual content needs text")
		}
	case ModeAuto:
	default:
		return Content{}, fmt.Errorf("unknown content mode %q", in.Mode)
	}
	if in.Platforms == nil {
		in.Platforms = []string{}
	}
	var out Content
	if err := c.call(ctx, http.MethodPost, "/content/create", in, &out); err != nil {
		return Content{}, err
	}
	return out, nil
}

func (c *Client) ListContent(ctx context.Context) ([]Content, error) {
	var out []Content
	if err := c.call(ctx, http.MethodGet, "/content/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RegenerateContent(ctx context.Context, id int64) (Content, error) {
	var out Content
	if err := c.call(ctx, http.MethodPost, gateway.Path("/content", id, "regenerate"), nil, &out); err != nil {
		return Content{}, err
	}
	return out, nil
}

func (c *Client) DeleteContent(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, gateway.Path("/content", id), nil, nil)
}
