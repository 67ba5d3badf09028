package api

import "socialsched/console/internal/workflow"

type User struct {
	ID       int64         `json:"id"`
	Username string        `json:"username"`
	Role     workflow.Role `json:"role"`
}

type Post struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	ScheduledAt    string          `json:"scheduled_at,omitempty"`
	Status         workflow.Status `json:"status"`
	RetryCount     int             `json:"retry_count"`
	LastError      string          `json:"last_error,omitempty"`
	AuthorID       int64           `json:"author_id,omitempty"`
	AuthorUsername string          `json:"author_username,omitempty"`
	Platforms      []string        `json:"platforms,omitempty"`
	Caption        string          `json:"caption,omitempty"`
	Tone           string          `json:"tone,omitempty"`
	AccountID      *int64          `json:"account_id,omitempty"`
}

// PostInput is the body of create and update. An empty ScheduledAt is left
// out so the backend keeps the post unscheduled.
type PostInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
}

type PublishingStatus struct {
	PostID      int64           `json:"post_id,omitempty"`
	Status      workflow.Status `json:"status"`
	RetryCount  int             `json:"retry_count"`
	LastError   string          `json:"last_error,omitempty"`
	PublishedAt string          `json:"published_at,omitempty"`
}

type CaptionRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tone      string   `json:"tone,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
}

type Account struct {
	ID         int64  `json:"id"`
	Platform   string `json:"platform"`
	Name       string `json:"name"`
	ExternalID string `json:"external_id"`
	IsActive   bool   `json:"is_active"`
}

type Platform struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Icon              string   `json:"icon"`
	SupportedFeatures []string `json:"supported_features"`
}

type OAuthInstructions struct {
	Title        string   `json:"title"`
	Steps        []string `json:"steps"`
	Requirements string   `json:"requirements"`
}

type OAuthStart struct {
	URL          string             `json:"oauth_url"`
	State        string             `json:"state"`
	Platform     string             `json:"platform"`
	Instructions *OAuthInstructions `json:"instructions,omitempty"`
}

type ContentMode string

const (
	ModeManual ContentMode = "manuel"
	ModeAuto   ContentMode = "otomatik"
)

type Content struct {
	ID               int64       `json:"id"`
	Title            string      `json:"title"`
	ContentText      string      `json:"content_text,omitempty"`
	Mode             ContentMode `json:"mode"`
	Tone             string      `json:"tone,omitempty"`
	UserPrompt       string      `json:"user_prompt,omitempty"`
	GeneratedContent string      `json:"generated_content,omitempty"`
	Platforms        []string    `json:"platforms"`
	Status           string      `json:"status"`
	CreatedAt        string      `json:"created_at,omitempty"`
	UpdatedAt        string      `json:"updated_at,omitempty"`
}

// ContentInput is sent to /content/create. Manual entries carry ContentText;
// generated ones carry Tone and UserPrompt.
type ContentInput struct {
	Title       string      `json:"title"`
	Mode        ContentMode `json:"mode"`
	ContentText string      `json:"content_text,omitempty"`
	Tone        string      `json:"tone,omitempty"`
	UserPrompt  string      `json:"user_prompt,omitempty"`
	Platforms   []string    `json:"platforms"`
}
