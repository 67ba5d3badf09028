package session

import "errors"

// Slot names in the durable store.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

var (
	ErrStoreRequired    = errors.New("session store is required")
	ErrEmptyAccessToken = errors.New("access token is empty")
)

type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token,omitempty"`
}

// Store persists named credential slots. Save replaces every slot at once.
type Store interface {
	Load() (map[string]string, error)
	Save(values map[string]string) error
}
