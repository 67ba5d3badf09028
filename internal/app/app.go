package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"socialsched/console/internal/api"
	"socialsched/console/internal/audit"
	"socialsched/console/internal/callback"
	"socialsched/console/internal/config"
	"socialsched/console/internal/gateway"
	"socialsched/console/internal/observability"
	"socialsched/console/internal/publish"
	"socialsched/console/internal/session"
)

type Options struct {
	Redirector gateway.LoginRedirector
	Logger     *slog.Logger
	HTTPClient *http.Client
	// Store overrides the store chosen from configuration.
	Store session.Store
}

type App struct {
	cfg     config.Config
	log     *slog.Logger
	db      *sql.DB
	session *session.Manager
	client  *api.Client
	audit   *audit.Logger
	poller  *publish.Poller
}

func New(cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(cfg.LogLevel)
	}

	var db *sql.DB
	store := opts.Store
	if store == nil {
		var err error
		store, db, err = openStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	manager, err := session.NewManager(store)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("create session manager: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}
	gw, err := gateway.New(gateway.Config{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: httpClient,
		Session:    manager,
		Redirector: opts.Redirector,
		Logger:     logger,
	})
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("create gateway: %w", err)
	}
	client, err := api.New(gw, api.Options{StatusMethod: cfg.API.StatusMethod})
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("create api client: %w", err)
	}

	return &App{
		cfg:     cfg,
		log:     logger,
		db:      db,
		session: manager,
		client:  client,
		audit:   audit.NewLogger(cfg.AuditLogFile),
		poller: &publish.Poller{
			Source:      client,
			MaxAttempts: cfg.Publish.MaxAttempts,
			Interval:    cfg.Publish.Interval,
			Logger:      logger,
		},
	}, nil
}

// openStore picks Postgres when a database URL is configured and the session
// file otherwise.
func openStore(cfg config.Config) (session.Store, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		store, err := session.NewFileStore(cfg.Session.File)
		if err != nil {
			return nil, nil, fmt.Errorf("create session file store: %w", err)
		}
		return store, nil, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := waitForDatabase(db, cfg.DatabaseConnectTimeout); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store, err := session.NewPostgresStore(db, cfg.Session.Profile)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create postgres session store: %w", err)
	}
	return store, db, nil
}

// waitForDatabase pings until the database answers or timeout elapses.
func waitForDatabase(db *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	deadline := time.Now().Add(timeout)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if time.Now().Add(dbRetryInterval).After(deadline) {
			return fmt.Errorf("database not ready within %s: %w", timeout, err)
		}
		time.Sleep(dbRetryInterval)
	}
}

const dbRetryInterval = 500 * time.Millisecond

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *App) Config() config.Config { return a.cfg }
func (a *App) Logger() *slog.Logger { return a.log }
func (a *App) Session() *session.Manager { return a.session }
func (a *App) API() *api.Client { return a.client }
func (a *App) Audit() *audit.Logger { return a.audit }
func (a *App) Poller() *publish.Poller { return a.poller }

// Actor names the signed-in user for the audit journal, from the stored
// access credential. Unknown when there is none or it cannot be read.
func (a *App) Actor() string {
	access, err := a.session.AccessToken()
	if err != nil || access == "" {
		return "anonymous"
	}
	claims, err := session.ParseClaims(access)
	if err != nil || claims.Subject == "" {
		return "unknown"
	}
	return claims.Subject
}

// Record writes an audit event and logs, rather than returns, a journal
// failure.
func (a *App) Record(actor string, action audit.Action, target string, cause error) {
	if err := a.audit.Record(actor, action, target, cause); err != nil {
		a.log.Warn("write audit event", "action", action, "error", err)
	}
}

func (a *App) RecordPending(actor string, action audit.Action, target, detail string) {
	if err := a.audit.RecordPending(actor, action, target, detail); err != nil {
		a.log.Warn("write audit event", "action", action, "error", err)
	}
}

// ConnectAccount runs the OAuth linking handshake: it asks the backend for the
// authorization URL, hands it to open, waits on the local callback listener
// for the provider's redirect and relays the code and state.
func (a *App) ConnectAccount(ctx context.Context, platform string, open func(start api.OAuthStart, redirectURL string) error) error {
	start, err := a.client.OAuthURL(ctx, platform)
	if err != nil {
		return err
	}

	srv := callback.New(callback.Config{
		Addr:          a.cfg.OAuth.CallbackAddr,
		ExpectedState: start.State,
		Logger:        a.log,
	})
	if err := srv.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("shutdown callback server", "error", err)
		}
	}()

	if err := open(start, srv.RedirectURL()); err != nil {
		return err
	}
	res, err := srv.Wait(ctx, a.cfg.OAuth.CallbackTimeout)
	if err != nil {
		return err
	}
	return a.client.OAuthCallback(ctx, res.Code, res.State)
}
