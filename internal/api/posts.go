package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"socialsched/console/internal/gateway"
	"socialsched/console/internal/workflow"
)

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.call(ctx, http.MethodGet, "/posts/", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	if err := validatePost(in); err != nil {
		return Post{}, err
	}
	var p Post
	if err := c.call(ctx, http.MethodPost, "/posts/", in, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

// CreatePostWithMedia sends the post as a multipart form with the file under
// the "media" field.
func (c *Client) CreatePostWithMedia(ctx context.Context, in PostInput, filename string, media io.Reader) (Post, error) {
	if err := validatePost(in); err != nil {
		return Post{}, err
	}
	fields := map[string]string{"title": in.Title, "content": in.Content}
	if in.ScheduledAt != "" {
		fields["scheduled_at"] = in.ScheduledAt
	}
	form, err := gateway.NewForm(fields, gateway.FormFile{Field: "media", Filename: filename, Content: media})
	if err != nil {
		return Post{}, err
	}
	var p Post
	if err := c.send(ctx, "/posts/", gateway.Request{Method: http.MethodPost, Form: form}, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (c *Client) UpdatePost(ctx context.Context, id int64, in PostInput) (Post, error) {
	if err := validatePost(in); err != nil {
		return Post{}, err
	}
	var p Post
	if err := c.call(ctx, http.MethodPut, gateway.Path("/posts", id), in, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, gateway.Path("/posts", id), nil, nil)
}

// ChangeStatus requests from -> to for the post. Transitions the caller's
// role is not offered are refused locally without a request.
func (c *Client) ChangeStatus(ctx context.Context, id int64, from, to workflow.Status, role workflow.Role) error {
	if err := workflow.Check(from, to, role.Privileged()); err != nil {
		return err
	}
	body := map[string]workflow.Status{"status": to}
	return c.call(ctx, c.statusMethod, gateway.Path("/posts", id, "status"), body, nil)
}

func (c *Client) Publish(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodPost, gateway.Path("/posts", id, "publish"), nil, nil)
}

func (c *Client) PublishingStatus(ctx context.Context, id int64) (PublishingStatus, error) {
	var st PublishingStatus
	if err := c.call(ctx, http.MethodGet, gateway.Path("/posts", id, "publishing-status"), nil, &st); err != nil {
		return PublishingStatus{}, err
	}
	if st.PostID == 0 {
		st.PostID = id
	}
	return st, nil
}

func (c *Client) GenerateCaption(ctx context.Context, in CaptionRequest) (string, error) {
	var out struct {
		Caption string `json:"caption"`
	}
	if err := c.call(ctx, http.MethodPost, "/posts/caption", in, &out); err != nil {
		return "", err
	}
	return out.Caption, nil
}

func validatePost(in PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("post title is required")
	}
	return nil
}
