package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"socialsched/console/internal/api"
	"socialsched/console/internal/audit"
)

func newAccountsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Link and unlink social media accounts",
	}
	cmd.AddCommand(
		newAccountsListCmd(e),
		newAccountsPlatformsCmd(e),
		newAccountsConnectCmd(e),
		newAccountsCallbackCmd(e),
		newAccountsDisconnectCmd(e),
	)
	return cmd
}

func newAccountsListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List linked accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := e.app.API().ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			return e.emit(cmd, accounts, func() error {
				if len(accounts) == 0 {
					printLine(cmd, mutedStyle.Render("No linked accounts."))
					return nil
				}
				t := newTable("ID", "PLATFORM", "NAME", "EXTERNAL ID", "ACTIVE")
				for _, a := range accounts {
					active := mutedStyle.Render("no")
					if a.IsActive {
						active = okStyle.Render("yes")
					}
					t.Row(strconv.FormatInt(a.ID, 10), a.Platform, a.Name, orDash(a.ExternalID), active)
				}
				printLine(cmd, t.String())
				return nil
			})
		},
	}
}

func newAccountsPlatformsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List platforms that can be linked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			platforms, err := e.app.API().ListPlatforms(cmd.Context())
			if err != nil {
				return err
			}
			return e.emit(cmd, platforms, func() error {
				t := newTable("ID", "NAME", "FEATURES", "DESCRIPTION")
				for _, p := range platforms {
					t.Row(p.ID, p.Name, orDash(strings.Join(p.SupportedFeatures, ",")), orDash(p.Description))
				}
				printLine(cmd, t.String())
				return nil
			})
		},
	}
}

func newAccountsConnectCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <platform>",
		Short: "Link an account through the provider's authorization page",
		Long: `connect asks the backend for the provider's authorization URL, prints it
and waits on the local callback listener (OAUTH_CALLBACK_ADDR) for the
provider to redirect back. The code and state are then relayed to the
backend. Use "accounts callback" when the redirect lands elsewhere.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform := args[0]
			actor := e.app.Actor()
			err := e.app.ConnectAccount(cmd.Context(), platform, func(start api.OAuthStart, redirectURL string) error {
				if ins := start.Instructions; ins != nil {
					printLine(cmd, headerStyle.Render(ins.Title))
					for i, step := range ins.Steps {
						printf(cmd, "  %d. %s\n", i+1, step)
					}
					if ins.Requirements != "" {
						printLine(cmd, mutedStyle.Render(ins.Requirements))
					}
				}
				printLine(cmd, "Open this address in a browser to authorize:")
				printLine(cmd, "  "+start.URL)
				printLine(cmd, mutedStyle.Render("Waiting for the provider to redirect to "+redirectURL))
				return nil
			})
			e.app.Record(actor, audit.ActionAccountConnect, platform, err)
			if err != nil {
				return err
			}
			done(cmd, "%s account linked", platform)
			return nil
		},
	}
}

func newAccountsCallbackCmd(e *env) *cobra.Command {
	var code, state string
	cmd := &cobra.Command{
		Use:   "callback",
		Short: "Relay an authorization code and state by hand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor := e.app.Actor()
			err := e.app.API().OAuthCallback(cmd.Context(), code, state)
			e.app.Record(actor, audit.ActionAccountConnect, "state:"+state, err)
			if err != nil {
				return err
			}
			done(cmd, "Account linked")
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code from the provider")
	cmd.Flags().StringVar(&state, "state", "", "state value from the provider")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func newAccountsDisconnectCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <id>",
		Short: "Unlink an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			actor := e.app.Actor()
			err = e.app.API().DisconnectAccount(cmd.Context(), id)
			e.app.Record(actor, audit.ActionAccountDisconnect, "account:"+args[0], err)
			if err != nil {
				return err
			}
			done(cmd, "Account #%d unlinked", id)
			return nil
		},
	}
}
