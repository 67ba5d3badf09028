package session

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// RefreshFunc exchanges a refresh credential for a new credential pair.
// An empty Refresh in the result means the backend did not rotate it.
type RefreshFunc func(ctx context.Context, refreshToken string) (Tokens, error)

// Manager is the single owner of the credential slots. Reads and writes go
// through a mutex and concurrent refreshes for the same credential share one
// in-flight call.
type Manager struct {
	store Store

	mu    sync.Mutex
	group singleflight.Group
}

func NewManager(store Store) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &Manager{store: store}, nil
}

func (m *Manager) Tokens() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	values, err := m.store.Load()
	if err != nil {
		return Tokens{}, fmt.Errorf("load session: %w", err)
	}
	return Tokens{Access: values[AccessTokenKey], Refresh: values[RefreshTokenKey]}, nil
}

func (m *Manager) AccessToken() (string, error) {
	t, err := m.Tokens()
	return t.Access, err
}

// SetTokens writes both slots in a single Save. An empty refresh token keeps
// the one already stored.
func (m *Manager) SetTokens(t Tokens) error {
	if t.Access == "" {
		return ErrEmptyAccessToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	values, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	values[AccessTokenKey] = t.Access
	if t.Refresh != "" {
		values[RefreshTokenKey] = t.Refresh
	}
	if err := m.store.Save(values); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (m *Manager) ClearAccess() error {
	return m.remove(AccessTokenKey)
}

func (m *Manager) Clear() error {
	return m.remove(AccessTokenKey, RefreshTokenKey)
}

func (m *Manager) remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	values, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	for _, k := range keys {
		delete(values, k)
	}
	if err := m.store.Save(values); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Refresh runs fn at most once per refresh credential across concurrent
// callers and stores the result. The shared call is detached from the
// caller's cancellation; a cancelled caller stops waiting but does not abort
// the refresh for the others.
func (m *Manager) Refresh(ctx context.Context, refreshToken string, fn RefreshFunc) (Tokens, error) {
	ch := m.group.DoChan(refreshToken, func() (any, error) {
		t, err := fn(context.WithoutCancel(ctx), refreshToken)
		if err != nil {
			return Tokens{}, err
		}
		if t.Access == "" {
			return Tokens{}, ErrEmptyAccessToken
		}
		if err := m.SetTokens(t); err != nil {
			return Tokens{}, err
		}
		if t.Refresh == "" {
			t.Refresh = refreshToken
		}
		return t, nil
	})

	select {
	case <-ctx.Done():
		return Tokens{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Tokens{}, res.Err
		}
		return res.Val.(Tokens), nil
	}
}
