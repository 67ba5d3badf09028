package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"socialsched/console/internal/api"
	"socialsched/console/internal/audit"
	"socialsched/console/internal/publish"
	"socialsched/console/internal/workflow"
)

func newPostsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage scheduled posts",
	}
	cmd.AddCommand(
		newPostsListCmd(e),
		newPostsCreateCmd(e),
		newPostsUpdateCmd(e),
		newPostsDeleteCmd(e),
		newPostsActionsCmd(e),
		newPostsStatusCmd(e),
		newPostsPublishCmd(e),
		newPostsCaptionCmd(e),
	)
	return cmd
}

func newPostsListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List posts with their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := e.app.API().ListPosts(cmd.Context())
			if err != nil {
				return err
			}
			return e.emit(cmd, posts, func() error {
				if len(posts) == 0 {
					printLine(cmd, mutedStyle.Render("No posts yet."))
					return nil
				}
				t := newTable("ID", "TITLE", "STATUS", "SCHEDULED", "RETRIES", "LAST ERROR")
				for _, p := range posts {
					t.Row(strconv.FormatInt(p.ID, 10), p.Title, badge(p.Status), orDash(p.ScheduledAt), strconv.Itoa(p.RetryCount), orDash(p.LastError))
				}
				printLine(cmd, t.String())
				return nil
			})
		},
	}
}

type postFlags struct {
	title       string
	content     string
	scheduledAt string
}

func (f *postFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "post title")
	cmd.Flags().StringVar(&f.content, "content", "", "post text")
	cmd.Flags().StringVar(&f.scheduledAt, "scheduled-at", "", "publish time, e.g. 2026-10-20T09:00")
}

func (f *postFlags) input() api.PostInput {
	return api.PostInput{Title: f.title, Content: f.content, ScheduledAt: f.scheduledAt}
}

func newPostsCreateCmd(e *env) *cobra.Command {
	var (
		f     postFlags
		media string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				p   api.Post
				err error
			)
			if media != "" {
				file, openErr := os.Open(media)
				if openErr != nil {
					return fmt.Errorf("open media: %w", openErr)
				}
				defer file.Close()
				p, err = e.app.API().CreatePostWithMedia(cmd.Context(), f.input(), filepath.Base(media), file)
			} else {
				p, err = e.app.API().CreatePost(cmd.Context(), f.input())
			}
			if err != nil {
				return err
			}
			return e.emit(cmd, p, func() error {
				done(cmd, "Created post #%d %s", p.ID, badge(p.Status))
				return nil
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&media, "media", "", "image or video file to attach")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newPostsUpdateCmd(e *env) *cobra.Command {
	var f postFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a post's title, text and schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := e.app.API().UpdatePost(cmd.Context(), id, f.input())
			if err != nil {
				return err
			}
			return e.emit(cmd, p, func() error {
				done(cmd, "Updated post #%d", p.ID)
				return nil
			})
		},
	}
	f.bind(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newPostsDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			actor := e.app.Actor()
			err = e.app.API().DeletePost(cmd.Context(), id)
			e.app.Record(actor, audit.ActionPostDelete, postTarget(id), err)
			if err != nil {
				return err
			}
			done(cmd, "Deleted post #%d", id)
			return nil
		},
	}
}

// findPost looks the post up in the listing, which is the only read the
// backend offers.
func (e *env) findPost(ctx context.Context, id int64) (api.Post, error) {
	posts, err := e.app.API().ListPosts(ctx)
	if err != nil {
		return api.Post{}, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return api.Post{}, fmt.Errorf("post #%d not found", id)
}

type postActions struct {
	PostID  int64                 `json:"post_id"`
	Status  workflow.Status       `json:"status"`
	Role    workflow.Role         `json:"role"`
	Actions []workflow.Transition `json:"actions"`
}

func newPostsActionsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "actions <id>",
		Short: "Show the status changes available for a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := e.findPost(cmd.Context(), id)
			if err != nil {
				return err
			}
			role, err := e.currentRole(cmd.Context())
			if err != nil {
				return err
			}
			out := postActions{PostID: id, Status: p.Status, Role: role, Actions: workflow.TransitionsFor(p.Status, role)}
			return e.emit(cmd, out, func() error {
				printf(cmd, "#%d %s\n", id, badge(p.Status))
				if len(out.Actions) == 0 {
					printLine(cmd, mutedStyle.Render("No actions available."))
					return nil
				}
				tags := make([]string, 0, len(out.Actions))
				for _, t := range out.Actions {
					tags = append(tags, tag(t))
				}
				printLine(cmd, strings.Join(tags, "  "))
				return nil
			})
		},
	}
}

func newPostsStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a post to another workflow status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			to, ok := workflow.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q", args[1])
			}
			actor := e.app.Actor()
			p, err := e.findPost(cmd.Context(), id)
			if err != nil {
				return err
			}
			role, err := e.currentRole(cmd.Context())
			if err != nil {
				return err
			}
			err = e.app.API().ChangeStatus(cmd.Context(), id, p.Status, to, role)
			e.app.Record(actor, audit.ActionPostStatus, fmt.Sprintf("%s %s->%s", postTarget(id), p.Status, to), err)
			if err != nil {
				return err
			}
			done(cmd, "Post #%d: %s -> %s", id, badge(p.Status), badge(to))
			return nil
		},
	}
}

func newPostsPublishCmd(e *env) *cobra.Command {
	var noWait bool
	cmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a post now and follow its publishing status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			actor := e.app.Actor()
			if noWait {
				err := e.app.API().Publish(cmd.Context(), id)
				e.app.Record(actor, audit.ActionPostPublish, postTarget(id), err)
				if err != nil {
					return err
				}
				done(cmd, "Publishing of post #%d started", id)
				return nil
			}

			poller := *e.app.Poller()
			if !e.jsonOut {
				poller.OnStatus = func(attempt int, st api.PublishingStatus) {
					printf(cmd, "%s %s\n", mutedStyle.Render(fmt.Sprintf("[%d/%d]", attempt, poller.MaxAttempts)), badge(st.Status))
				}
			}
			res, err := publish.PublishAndWait(cmd.Context(), e.app.API(), &poller, id)
			if res.TimedOut {
				e.app.RecordPending(actor, audit.ActionPostPublish, postTarget(id), fmt.Sprintf("still processing after %d checks", res.Attempts))
			} else {
				e.app.Record(actor, audit.ActionPostPublish, postTarget(id), err)
				if err != nil {
					return err
				}
			}
			return e.emit(cmd, res, func() error {
				switch {
				case res.TimedOut:
					printLine(cmd, mutedStyle.Render("Still processing; check again with `console posts list`."))
				case res.Published():
					done(cmd, "Post #%d published", id)
				default:
					printf(cmd, "Post #%d ended as %s %s\n", id, badge(res.Status.Status), res.Status.LastError)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "trigger publishing without polling")
	return cmd
}

func newPostsCaptionCmd(e *env) *cobra.Command {
	var in api.CaptionRequest
	cmd := &cobra.Command{
		Use:   "caption",
		Short: "Generate a caption with the AI assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caption, err := e.app.API().GenerateCaption(cmd.Context(), in)
			if err != nil {
				return err
			}
			return e.emit(cmd, map[string]string{"caption": caption}, func() error {
				printLine(cmd, caption)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "post title")
	cmd.Flags().StringVar(&in.Content, "content", "", "post text")
	cmd.Flags().StringVar(&in.Tone, "tone", "", "tone, e.g. kurumsal or samimi")
	cmd.Flags().StringSliceVar(&in.Platforms, "platform", nil, "target platform (repeatable)")
	return cmd
}

func postTarget(id int64) string { return "post:" + strconv.FormatInt(id, 10) }
