package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"socialsched/console/internal/api"
	"socialsched/console/internal/app"
	"socialsched/console/internal/config"
	"socialsched/console/internal/gateway"
	"socialsched/console/internal/workflow"
)

const loginHint = "Your session has ended. Run `console login` to sign in again."

// Options lets callers replace how configuration is read and how the app is
// built. Zero values use config.LoadFile and app.New.
type Options struct {
	LoadConfig func(path string) (config.Config, error)
	App        app.Options
}

// env is the state shared by every command of one invocation.
type env struct {
	opts       Options
	configPath string
	jsonOut    bool

	app *app.App

	mu         sync.Mutex
	redirected bool
}

func (e *env) RedirectToLogin(reason error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.redirected = true
}

func (e *env) sessionEnded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.redirected
}

func (e *env) setup() error {
	if e.app != nil {
		return nil
	}
	load := e.opts.LoadConfig
	if load == nil {
		load = config.LoadFile
	}
	cfg, err := load(e.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	appOpts := e.opts.App
	appOpts.Redirector = e
	a, err := app.New(cfg, appOpts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	e.app = a
	return nil
}

func (e *env) close() {
	if e.app != nil {
		_ = e.app.Close()
	}
}

func newRoot(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "console",
		Short: "Administration console for the social media scheduling service",
		Long: `console signs in to the scheduling API and manages posts, generated
content, linked social accounts and user roles from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup()
		},
	}
	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "config file (YAML); environment variables take precedence")
	root.PersistentFlags().BoolVar(&e.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newPostsCmd(e),
		newContentCmd(e),
		newAccountsCmd(e),
		newAdminCmd(e),
		newAuditCmd(e),
	)
	return root
}

// Execute runs the command tree and maps the outcome to a process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts Options) int {
	e := &env{opts: opts}
	root := newRoot(e)
	defer e.close()

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if e.sessionEnded() || isSessionError(err) {
		fmt.Fprintln(stderr, errorStyle.Render(loginHint))
		return 1
	}
	fmt.Fprintln(stderr, errorStyle.Render("error: "+describe(err)))
	return 1
}

func isSessionError(err error) bool {
	return errors.Is(err, gateway.ErrUnauthorized) ||
		errors.Is(err, gateway.ErrSessionExpired) ||
		errors.Is(err, gateway.ErrRefreshFailed)
}

// describe shows backend messages verbatim.
func describe(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// currentRole asks the identity endpoint, since the transition table depends
// on it.
func (e *env) currentRole(ctx context.Context) (workflow.Role, error) {
	me, err := e.app.API().Me(ctx)
	if err != nil {
		return "", err
	}
	return me.Role, nil
}
