package callback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthz(t *testing.T) {
	h := NewHandler("", func(Result) {})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestCallbackDeliversCodeAndState(t *testing.T) {
	var got []Result
	h := NewHandler("s1", func(r Result) { got = append(got, r) })

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?code=abc&state=s1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(got) != 1 || got[0].Code != "abc" || got[0].State != "s1" {
		t.Fatalf("unexpected delivery: %+v", got)
	}
}

func TestCallbackRejectsBadRequests(t *testing.T) {
	cases := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"missing code", http.MethodGet, "/oauth/callback?state=s1", http.StatusBadRequest},
		{"missing state", http.MethodGet, "/oauth/callback?code=abc", http.StatusBadRequest},
		{"state mismatch", http.MethodGet, "/oauth/callback?code=abc&state=other", http.StatusBadRequest},
		{"provider error with state mismatch", http.MethodGet, "/oauth/callback?error=access_denied&state=forged", http.StatusBadRequest},
		{"provider error without state", http.MethodGet, "/oauth/callback?error=access_denied", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/oauth/callback?code=abc&state=s1", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			delivered := false
			h := NewHandler("s1", func(Result) { delivered = true })
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.target, nil))
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if delivered {
				t.Fatal("rejected callback must not be delivered")
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("expected error body, got %q", rr.Body.String())
			}
		})
	}
}

func TestCallbackProviderErrorIsDelivered(t *testing.T) {
	var got Result
	h := NewHandler("s1", func(r Result) { got = r })
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/oauth/callback?error=access_denied&error_description=user+cancelled&state=s1", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if got.Error != "access_denied: user cancelled" {
		t.Fatalf("unexpected provider error: %q", got.Error)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	rr := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "rid-1")
	rr = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-Id"); got != "rid-1" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}

func TestServerWaitReceivesCallback(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0", ExpectedState: "s1"})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	}()

	go func() {
		res, err := http.Get(s.RedirectURL() + "?code=abc&state=s1")
		if err == nil {
			res.Body.Close()
		}
	}()

	r, err := s.Wait(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if r.Code != "abc" {
		t.Fatalf("expected code abc, got %q", r.Code)
	}
}

func TestServerWaitTimesOut(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	_, err := s.Wait(context.Background(), 10*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestServerWaitReportsProviderError(t *testing.T) {
	s := New(Config{})
	s.deliver(Result{Error: "access_denied"})
	s.deliver(Result{Code: "dropped"})

	_, err := s.Wait(context.Background(), time.Second)
	if !errors.Is(err, ErrProviderDenied) {
		t.Fatalf("expected ErrProviderDenied, got %v", err)
	}
}

func TestStartFailsOnBadAddress(t *testing.T) {
	s := New(Config{Addr: "256.0.0.1:99999"})
	if err := s.Start(); err == nil {
		t.Fatal("expected listen error")
	}
}
