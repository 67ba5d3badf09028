package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"socialsched/console/internal/audit"
	"socialsched/console/internal/workflow"
)

func newAdminCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "User and role management (admin only)",
	}
	cmd.AddCommand(newAdminUsersCmd(e), newAdminRoleCmd(e))
	return cmd
}

func newAdminUsersCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users and their roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := e.app.API().ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			return e.emit(cmd, users, func() error {
				t := newTable("ID", "USERNAME", "ROLE")
				for _, u := range users {
					t.Row(strconv.FormatInt(u.ID, 10), u.Username, string(u.Role))
				}
				printLine(cmd, t.String())
				return nil
			})
		},
	}
}

func newAdminRoleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "role <user-id> <admin|user>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			role := workflow.Role(strings.ToLower(strings.TrimSpace(args[1])))
			if role != workflow.RoleAdmin && role != workflow.RoleUser {
				return fmt.Errorf("role must be admin or user, got %q", args[1])
			}
			actor := e.app.Actor()
			err = e.app.API().SetUserRole(cmd.Context(), id, role)
			e.app.Record(actor, audit.ActionAdminRole, fmt.Sprintf("user:%d role=%s", id, role), err)
			if err != nil {
				return err
			}
			done(cmd, "User #%d is now %s", id, role)
			return nil
		},
	}
}
