package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"socialsched/console/internal/api"
	"socialsched/console/internal/audit"
)

func newContentCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Plan manual and AI-generated content",
	}
	cmd.AddCommand(
		newContentListCmd(e),
		newContentCreateCmd(e),
		newContentRegenerateCmd(e),
		newContentDeleteCmd(e),
	)
	return cmd
}

func newContentListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List planned content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := e.app.API().ListContent(cmd.Context())
			if err != nil {
				return err
			}
			return e.emit(cmd, items, func() error {
				if len(items) == 0 {
					printLine(cmd, mutedStyle.Render("No content yet."))
					return nil
				}
				t := newTable("ID", "TITLE", "MODE", "STATUS", "PLATFORMS", "TEXT")
				for _, c := range items {
					text := c.ContentText
					if c.Mode == api.ModeAuto {
						text = c.GeneratedContent
					}
					t.Row(strconv.FormatInt(c.ID, 10), c.Title, string(c.Mode), orDash(c.Status), orDash(strings.Join(c.Platforms, ",")), orDash(truncate(text, 60)))
				}
				printLine(cmd, t.String())
				return nil
			})
		},
	}
}

func newContentCreateCmd(e *env) *cobra.Command {
	var (
		in   api.ContentInput
		mode string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create content by hand or have it generated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := api.ParseContentMode(mode)
			if !ok {
				return fmt.Errorf("mode must be %q or %q", api.ModeManual, api.ModeAuto)
			}
			in.Mode = m
			c, err := e.app.API().CreateContent(cmd.Context(), in)
			if err != nil {
				return err
			}
			return e.emit(cmd, c, func() error {
				done(cmd, "Created content #%d", c.ID)
				if c.GeneratedContent != "" {
					printLine(cmd, c.GeneratedContent)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "content title")
	cmd.Flags().StringVar(&mode, "mode", string(api.ModeManual), "manuel or otomatik")
	cmd.Flags().StringVar(&in.ContentText, "text", "", "content text for manual mode")
	cmd.Flags().StringVar(&in.Tone, "tone", "", "tone for generated content")
	cmd.Flags().StringVar(&in.UserPrompt, "prompt", "", "prompt for generated content")
	cmd.Flags().StringSliceVar(&in.Platforms, "platform", nil, "target platform (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newContentRegenerateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <id>",
		Short: "Generate the text of a content item again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := e.app.API().RegenerateContent(cmd.Context(), id)
			if err != nil {
				return err
			}
			return e.emit(cmd, c, func() error {
				printLine(cmd, c.GeneratedContent)
				return nil
			})
		},
	}
}

func newContentDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			actor := e.app.Actor()
			err = e.app.API().DeleteContent(cmd.Context(), id)
			e.app.Record(actor, audit.ActionContentDelete, "content:"+args[0], err)
			if err != nil {
				return err
			}
			done(cmd, "Deleted content #%d", id)
			return nil
		},
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
