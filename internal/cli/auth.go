package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"socialsched/console/internal/audit"
	"socialsched/console/internal/session"
)

func newLoginCmd(e *env) *cobra.Command {
	var (
		username      string
		password      string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			_, err := e.app.API().Login(cmd.Context(), username, password)
			e.app.Record(username, audit.ActionLogin, "", err)
			if err != nil {
				return err
			}
			done(cmd, "Signed in as %s", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor := e.app.Actor()
			err := e.app.API().Logout()
			e.app.Record(actor, audit.ActionLogout, "", err)
			if err != nil {
				return err
			}
			done(cmd, "Signed out")
			return nil
		},
	}
}

type whoami struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := e.app.API().Me(cmd.Context())
			if err != nil {
				return err
			}
			out := whoami{ID: me.ID, Username: me.Username, Role: string(me.Role)}
			if access, err := e.app.Session().AccessToken(); err == nil && access != "" {
				if claims, err := session.ParseClaims(access); err == nil {
					if left, ok := claims.ExpiresIn(time.Now()); ok {
						out.ExpiresIn = left.Truncate(time.Second).String()
					}
				}
			}
			return e.emit(cmd, out, func() error {
				printf(cmd, "%s (#%d)\n", out.Username, out.ID)
				printf(cmd, "role: %s\n", out.Role)
				if out.ExpiresIn != "" {
					printLine(cmd, mutedStyle.Render("access credential expires in "+out.ExpiresIn))
				}
				return nil
			})
		},
	}
}
