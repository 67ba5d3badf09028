package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"socialsched/console/internal/app"
	"socialsched/console/internal/config"
	"socialsched/console/internal/observability"
	"socialsched/console/internal/session"
)

type harness struct {
	t       *testing.T
	mux     *http.ServeMux
	store   *session.MemoryStore
	journal string
	role    string

	statusCalls atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, mux: http.NewServeMux(), store: session.NewMemoryStore(), role: "user"}
	h.journal = filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, h.store.Save(map[string]string{session.AccessTokenKey: "a-1", session.RefreshTokenKey: "r-1"}))

	h.mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "username": "ayse", "role": h.role})
	})
	h.mux.HandleFunc("/posts/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/posts/":
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": 7, "title": "Festival duyurusu", "content": "x", "status": "taslak", "retry_count": 0},
				{"id": 8, "title": "Yol çalışması", "content": "y", "status": "planlandi", "retry_count": 0, "scheduled_at": "2026-10-20T09:00"},
			})
		case r.URL.Path == "/posts/7/status":
			h.statusCalls.Add(1)
			writeJSON(w, http.StatusOK, map[string]string{"status": "inceleme"})
		case r.Method == http.MethodDelete && r.URL.Path == "/posts/7":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
	return h
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	srv := httptest.NewServer(h.mux)
	defer srv.Close()

	opts := Options{
		LoadConfig: func(string) (config.Config, error) {
			return config.Config{
				API:          config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, StatusMethod: http.MethodPatch},
				Session:      config.SessionConfig{File: "unused", Profile: "default"},
				Publish:      config.PublishConfig{MaxAttempts: 3, Interval: time.Millisecond},
				OAuth:        config.OAuthConfig{CallbackAddr: "127.0.0.1:0", CallbackTimeout: time.Second},
				AuditLogFile: h.journal,
				LogLevel:     "ERROR",
			}, nil
		},
		App: app.Options{Store: h.store, Logger: observability.Discard()},
	}
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr, opts)
	return code, stdout.String(), stderr.String()
}

func TestPostsListShowsStatusLabels(t *testing.T) {
	h := newHarness(t)
	code, out, errOut := h.run("posts", "list")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "Festival duyurusu")
	require.Contains(t, out, "Taslak")
	require.Contains(t, out, "Planlandı")
	require.Contains(t, out, "2026-10-20T09:00")
}

func TestPostsListJSON(t *testing.T) {
	h := newHarness(t)
	code, out, errOut := h.run("--json", "posts", "list")
	require.Equal(t, 0, code, errOut)

	var posts []struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &posts))
	require.Len(t, posts, 2)
	require.Equal(t, "planlandi", posts[1].Status)
}

func TestPostsActionsDependOnRole(t *testing.T) {
	h := newHarness(t)
	code, out, _ := h.run("posts", "actions", "7")
	require.Equal(t, 0, code)
	require.Contains(t, out, "[inceleme] İncelemeye Gönder")
	require.Contains(t, out, "[iptal] İptal Et")
	require.NotContains(t, out, "Onayla")

	h.role = "admin"
	code, out, _ = h.run("posts", "actions", "7")
	require.Equal(t, 0, code)
	require.Contains(t, out, "[onaylandi] Onayla")
	require.Contains(t, out, "[planlandi] Planla")

	h.role = "user"
	code, out, _ = h.run("posts", "actions", "8")
	require.Equal(t, 0, code)
	require.Contains(t, out, "No actions available.")
}

func TestPostsStatusChecksPolicyBeforeRequest(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("posts", "status", "7", "onaylandi")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "transition not allowed")
	require.Zero(t, h.statusCalls.Load())

	code, out, errOut := h.run("posts", "status", "7", "inceleme")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "İnceleme Bekliyor")
	require.Equal(t, int32(1), h.statusCalls.Load())

	code, _, errOut = h.run("posts", "status", "7", "archived")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "unknown status")
}

func TestSessionEndPrintsLoginHint(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/accounts/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	h.mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Refresh token expired"})
	})

	code, _, errOut := h.run("accounts", "list")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "console login")

	values, err := h.store.Load()
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestBackendDetailIsShown(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/content/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Bu işlem için yetkiniz yok"})
	})
	code, _, errOut := h.run("content", "list")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "Bu işlem için yetkiniz yok")
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("password") != "gizli parola" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "a-new", "refresh_token": "r-new"})
	})

	srv := httptest.NewServer(h.mux)
	defer srv.Close()
	opts := Options{
		LoadConfig: func(string) (config.Config, error) {
			return config.Config{
				API:          config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, StatusMethod: http.MethodPatch},
				Session:      config.SessionConfig{File: "unused", Profile: "default"},
				Publish:      config.PublishConfig{MaxAttempts: 1, Interval: time.Millisecond},
				OAuth:        config.OAuthConfig{CallbackAddr: "127.0.0.1:0", CallbackTimeout: time.Second},
				AuditLogFile: h.journal,
				LogLevel:     "ERROR",
			}, nil
		},
		App: app.Options{Store: h.store, Logger: observability.Discard()},
	}

	e := &env{opts: opts}
	root := newRoot(e)
	var stdout bytes.Buffer
	root.SetArgs([]string{"login", "-u", "ayse", "--password-stdin"})
	root.SetIn(strings.NewReader("gizli parola\n"))
	root.SetOut(&stdout)
	require.NoError(t, root.ExecuteContext(context.Background()))
	e.close()

	require.Contains(t, stdout.String(), "Signed in as ayse")
	values, err := h.store.Load()
	require.NoError(t, err)
	require.Equal(t, "a-new", values[session.AccessTokenKey])
	require.Equal(t, "r-new", values[session.RefreshTokenKey])
}

func TestDeleteIsJournaled(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("posts", "delete", "7")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := h.run("--json", "audit", "-n", "5")
	require.Equal(t, 0, code, errOut)
	var events []struct {
		Action  string `json:"action"`
		Target  string `json:"target"`
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	require.Equal(t, "post.delete", events[0].Action)
	require.Equal(t, "post:7", events[0].Target)
	require.Equal(t, "success", events[0].Outcome)
}

func TestJournalKeepsActorWhenSessionEnds(t *testing.T) {
	h := newHarness(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ayse"}).SignedString([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, h.store.Save(map[string]string{session.AccessTokenKey: token, session.RefreshTokenKey: "r-1"}))
	h.mux.HandleFunc("/posts/9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	h.mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Refresh token expired"})
	})

	code, _, errOut := h.run("posts", "delete", "9")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "console login")

	code, out, errOut := h.run("--json", "audit", "-n", "5")
	require.Equal(t, 0, code, errOut)
	var events []struct {
		Actor   string `json:"actor"`
		Action  string `json:"action"`
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	require.Equal(t, "ayse", events[0].Actor)
	require.Equal(t, "post.delete", events[0].Action)
	require.Equal(t, "failed", events[0].Outcome)
}

func TestPublishFollowsStatus(t *testing.T) {
	h := newHarness(t)
	var polls atomic.Int32
	h.mux.HandleFunc("/posts/8/publish", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "queued"})
	})
	h.mux.HandleFunc("/posts/8/publishing-status", func(w http.ResponseWriter, r *http.Request) {
		status := "kuyruk"
		if polls.Add(1) >= 2 {
			status = "yayinlandi"
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": status, "retry_count": 0})
	})

	code, out, errOut := h.run("posts", "publish", "8")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "Kuyruğa Alındı")
	require.Contains(t, out, "Post #8 published")
	require.Equal(t, int32(2), polls.Load())
}

func TestPublishTimeoutIsJournaledAsPending(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/posts/8/publish", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "queued"})
	})
	h.mux.HandleFunc("/posts/8/publishing-status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "kuyruk", "retry_count": 0})
	})

	code, out, errOut := h.run("posts", "publish", "8")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "Still processing")

	code, out, errOut = h.run("--json", "audit", "-n", "5")
	require.Equal(t, 0, code, errOut)
	var events []struct {
		Action  string `json:"action"`
		Outcome string `json:"outcome"`
		Detail  string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	require.Equal(t, "post.publish", events[0].Action)
	require.Equal(t, "pending", events[0].Outcome)
	require.Equal(t, "still processing after 3 checks", events[0].Detail)
}

func TestParseID(t *testing.T) {
	id, err := parseID("12")
	require.NoError(t, err)
	require.Equal(t, int64(12), id)
	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := parseID(bad)
		require.Error(t, err, bad)
	}
}
