package cli

import (
	"github.com/spf13/cobra"

	"socialsched/console/internal/audit"
)

func newAuditCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the newest entries of the local action journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !e.app.Audit().Enabled() {
				printLine(cmd, mutedStyle.Render("The journal is off; set AUDIT_LOG_FILE to enable it."))
				return nil
			}
			events, err := e.app.Audit().Recent(limit)
			if err != nil {
				return err
			}
			return e.emit(cmd, events, func() error {
				t := newTable("AT", "ACTOR", "ACTION", "TARGET", "OUTCOME", "DETAIL")
				for _, ev := range events {
					var outcome string
					switch ev.Outcome {
					case audit.OutcomeSuccess:
						outcome = okStyle.Render(ev.Outcome)
					case audit.OutcomePending:
						outcome = mutedStyle.Render(ev.Outcome)
					default:
						outcome = errorStyle.Render(ev.Outcome)
					}
					t.Row(ev.At, ev.Actor, string(ev.Action), orDash(ev.Target), outcome, orDash(ev.Detail))
				}
				printLine(cmd, t.String())
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}
