package callback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"socialsched/console/internal/observability"
)

const CallbackPath = "/oauth/callback"

var (
	ErrTimeout        = errors.New("callback: no authorization response received")
	ErrProviderDenied = errors.New("callback: provider reported an error")
)

// Result is what the provider sent back to the redirect URL.
type Result struct {
	Code  string
	State string
	Error string
}

type Config struct {
	Addr string
	// ExpectedState, when set, rejects callbacks carrying a different state.
	ExpectedState string
	Logger        *slog.Logger
}

type Server struct {
	httpServer *http.Server
	addr       string
	log        *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	results  chan Result
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.Discard()
	}
	s := &Server{
		addr:    cfg.Addr,
		log:     logger,
		results: make(chan Result, 1),
	}
	s.httpServer = &http.Server{
		Handler:           requestIDMiddleware(logger, NewHandler(cfg.ExpectedState, s.deliver)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// NewHandler serves /healthz and the callback path. Accepted callbacks are
// passed to deliver.
func NewHandler(expectedState string, deliver func(Result)) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc(CallbackPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		q := r.URL.Query()
		state := strings.TrimSpace(q.Get("state"))
		providerErr := strings.TrimSpace(q.Get("error"))
		// Denials are checked too; a foreign state never reaches the waiter.
		if expectedState != "" && state != expectedState {
			writeError(w, http.StatusBadRequest, "state mismatch")
			return
		}
		if providerErr != "" {
			if desc := strings.TrimSpace(q.Get("error_description")); desc != "" {
				providerErr += ": " + desc
			}
			deliver(Result{State: state, Error: providerErr})
			writeError(w, http.StatusBadRequest, providerErr)
			return
		}
		code := strings.TrimSpace(q.Get("code"))
		if code == "" || state == "" {
			writeError(w, http.StatusBadRequest, "code and state are required")
			return
		}
		deliver(Result{Code: code, State: state})
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "received",
			"message": "Authorization received. You can close this window.",
		})
	})
	return mux
}

func (s *Server) deliver(r Result) {
	select {
	case s.results <- r:
	default:
		s.log.Warn("dropping extra oauth callback", "state", r.State)
	}
}

// Start binds the listener and serves in the background. Serve errors other
// than a clean shutdown are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("callback server stopped", "error", err)
		}
	}()
	return nil
}

// Addr is the bound address once Start succeeded, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) RedirectURL() string {
	return "http://" + s.Addr() + CallbackPath
}

// Wait blocks until one callback is accepted, timeout elapses or ctx is done.
func (s *Server) Wait(ctx context.Context, timeout time.Duration) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case r := <-s.results:
		if r.Error != "" {
			return r, fmt.Errorf("%w: %s", ErrProviderDenied, r.Error)
		}
		return r, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, ErrTimeout
		}
		return Result{}, ctx.Err()
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func requestIDMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("callback request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "request_id", reqID)
	})
}
