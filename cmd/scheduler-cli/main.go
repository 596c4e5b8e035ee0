// Command scheduler-cli is a thin gRPC client for the scheduling daemon. It
// is an external collaborator (spec.md §1 places CLI front-ends out of
// core scope) included here for a runnable end-to-end demo.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jeanlucthumm/reddit-scheduler/internal/schedulerpb"
)

var addr string

func main() {
	root := &cobra.Command{
		Use:   "scheduler-cli",
		Short: "Talk to a running reddit-scheduler daemon",
	}
	root.PersistentFlags().StringVar(&addr, "addr", "localhost:50051", "daemon gRPC address")

	root.AddCommand(newListCmd())
	root.AddCommand(newRmCmd())
	root.AddCommand(newFlairsCmd())
	root.AddCommand(newAddCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dial() (schedulerpb.SchedulerClient, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return schedulerpb.NewSchedulerClient(conn), func() { conn.Close() }, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all scheduled posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := dial()
			if err != nil {
				return err
			}
			defer closeFn()

			resp, err := client.ListPosts(cmd.Context(), &schedulerpb.ListPostsRequest{})
			if err != nil {
				return err
			}
			if resp.ErrorMsg != "" {
				return fmt.Errorf("%s", resp.ErrorMsg)
			}
			for _, e := range resp.Posts {
				fmt.Printf("%d\t%s\t%s\t%s\n", e.ID, statusName(e.Status), e.Post.Subreddit, e.Post.Title)
			}
			return nil
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a scheduled post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}

			client, closeFn, err := dial()
			if err != nil {
				return err
			}
			defer closeFn()

			resp, err := client.EditPost(cmd.Context(), &schedulerpb.EditPostRequest{
				Operation: schedulerpb.EditOperationDelete,
				ID:        id,
			})
			if err != nil {
				return err
			}
			if resp.ErrorMsg != "" {
				return fmt.Errorf("%s", resp.ErrorMsg)
			}
			return nil
		},
	}
}

func newFlairsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flairs <subreddit>",
		Short: "List selectable flairs for a subreddit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := dial()
			if err != nil {
				return err
			}
			defer closeFn()

			resp, err := client.ListFlairs(cmd.Context(), &schedulerpb.ListFlairsRequest{Subreddit: args[0]})
			if err != nil {
				return err
			}
			if len(resp.Flairs) == 0 {
				fmt.Println("no flairs available")
				return nil
			}
			for _, f := range resp.Flairs {
				fmt.Printf("%s\t%s\n", f.ID, f.Text)
			}
			return nil
		},
	}
}

// schedule dials the daemon, wraps post in a SchedulePostRequest, and
// surfaces either transport or ErrorMsg failures the same way.
func schedule(cmd *cobra.Command, post schedulerpb.Post) error {
	client, closeFn, err := dial()
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := client.SchedulePost(cmd.Context(), &schedulerpb.SchedulePostRequest{Post: post})
	if err != nil {
		return err
	}
	if resp.ErrorMsg != "" {
		return fmt.Errorf("%s", resp.ErrorMsg)
	}
	return nil
}

func newAddCmd() *cobra.Command {
	add := &cobra.Command{
		Use:   "add",
		Short: "Schedule a post",
	}
	add.AddCommand(newAddTextCmd(), newAddPollCmd(), newAddImageCmd(), newAddURLCmd())
	return add
}

func newAddTextCmd() *cobra.Command {
	var subreddit, title, body, flairID string
	var scheduledTime int64

	cmd := &cobra.Command{
		Use:   "text",
		Short: "Schedule a text post",
		RunE: func(cmd *cobra.Command, args []string) error {
			return schedule(cmd, schedulerpb.Post{
				Title:         title,
				Subreddit:     subreddit,
				ScheduledTime: scheduledTime,
				FlairID:       flairID,
				Text:          &schedulerpb.TextPost{Body: body},
			})
		},
	}
	cmd.Flags().StringVar(&subreddit, "subreddit", "", "target subreddit")
	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&body, "body", "", "self-post body")
	cmd.Flags().StringVar(&flairID, "flair-id", "", "flair template id")
	cmd.Flags().Int64Var(&scheduledTime, "at", 0, "scheduled time, seconds since epoch")
	return cmd
}

func newAddPollCmd() *cobra.Command {
	var subreddit, title, selftext, flairID string
	var options []string
	var durationDays int32
	var scheduledTime int64

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Schedule a poll post",
		RunE: func(cmd *cobra.Command, args []string) error {
			return schedule(cmd, schedulerpb.Post{
				Title:         title,
				Subreddit:     subreddit,
				ScheduledTime: scheduledTime,
				FlairID:       flairID,
				Poll: &schedulerpb.PollPost{
					Selftext: selftext,
					Duration: durationDays,
					Options:  options,
				},
			})
		},
	}
	cmd.Flags().StringVar(&subreddit, "subreddit", "", "target subreddit")
	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&selftext, "selftext", "", "poll body text")
	cmd.Flags().StringSliceVar(&options, "option", nil, "poll option, repeatable (at least two required)")
	cmd.Flags().Int32Var(&durationDays, "duration-days", 0, "poll duration in days")
	cmd.Flags().StringVar(&flairID, "flair-id", "", "flair template id")
	cmd.Flags().Int64Var(&scheduledTime, "at", 0, "scheduled time, seconds since epoch")
	return cmd
}

func newAddImageCmd() *cobra.Command {
	var subreddit, title, path, flairID string
	var nsfw bool
	var scheduledTime int64

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Schedule an image post",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read image %q: %w", path, err)
			}
			return schedule(cmd, schedulerpb.Post{
				Title:         title,
				Subreddit:     subreddit,
				ScheduledTime: scheduledTime,
				FlairID:       flairID,
				Image: &schedulerpb.ImagePost{
					ImageData: data,
					Extension: strings.TrimPrefix(filepath.Ext(path), "."),
					NSFW:      nsfw,
				},
			})
		},
	}
	cmd.Flags().StringVar(&subreddit, "subreddit", "", "target subreddit")
	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&path, "path", "", "path to the image file to upload")
	cmd.Flags().BoolVar(&nsfw, "nsfw", false, "mark the post NSFW")
	cmd.Flags().StringVar(&flairID, "flair-id", "", "flair template id")
	cmd.Flags().Int64Var(&scheduledTime, "at", 0, "scheduled time, seconds since epoch")
	return cmd
}

func newAddURLCmd() *cobra.Command {
	var subreddit, title, url, flairID string
	var scheduledTime int64

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Schedule a link post",
		RunE: func(cmd *cobra.Command, args []string) error {
			return schedule(cmd, schedulerpb.Post{
				Title:         title,
				Subreddit:     subreddit,
				ScheduledTime: scheduledTime,
				FlairID:       flairID,
				URL:           &schedulerpb.UrlPost{URL: url},
			})
		},
	}
	cmd.Flags().StringVar(&subreddit, "subreddit", "", "target subreddit")
	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&url, "url", "", "link target")
	cmd.Flags().StringVar(&flairID, "flair-id", "", "flair template id")
	cmd.Flags().Int64Var(&scheduledTime, "at", 0, "scheduled time, seconds since epoch")
	return cmd
}

func statusName(s schedulerpb.Status) string {
	switch s {
	case schedulerpb.StatusPending:
		return "PENDING"
	case schedulerpb.StatusPosted:
		return "POSTED"
	case schedulerpb.StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
