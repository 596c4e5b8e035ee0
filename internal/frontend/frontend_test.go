package frontend_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jeanlucthumm/reddit-scheduler/internal/frontend"
	"github.com/jeanlucthumm/reddit-scheduler/internal/reddit"
	"github.com/jeanlucthumm/reddit-scheduler/internal/schedulerpb"
	"github.com/jeanlucthumm/reddit-scheduler/internal/store"
)

type fakeClient struct {
	flairs    []reddit.Flair
	flairsErr error
}

func (f *fakeClient) SubmitText(context.Context, reddit.SubmitTextParams) error   { return nil }
func (f *fakeClient) SubmitPoll(context.Context, reddit.SubmitPollParams) error   { return nil }
func (f *fakeClient) SubmitImage(context.Context, reddit.SubmitImageParams) error { return nil }
func (f *fakeClient) SubmitURL(context.Context, reddit.SubmitURLParams) error     { return nil }
func (f *fakeClient) ListUserSelectableFlairs(ctx context.Context, subreddit string) ([]reddit.Flair, error) {
	return f.flairs, f.flairsErr
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st := store.New(path, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = st.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("store did not stop after context cancellation")
		}
	})
	time.Sleep(10 * time.Millisecond)
	return st
}

func TestSchedulePost_ThenListPosts_RoundTrips(t *testing.T) {
	st := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := frontend.New(st, &fakeClient{}, logger)
	ctx := context.Background()

	schedResp, err := svc.SchedulePost(ctx, &schedulerpb.SchedulePostRequest{
		Post: schedulerpb.Post{
			Title:         "hello",
			Subreddit:     "golang",
			ScheduledTime: 1,
			Text:          &schedulerpb.TextPost{Body: "world"},
		},
	})
	if err != nil {
		t.Fatalf("SchedulePost: %v", err)
	}
	if schedResp.ErrorMsg != "" {
		t.Fatalf("SchedulePost: unexpected error_msg %q", schedResp.ErrorMsg)
	}

	listResp, err := svc.ListPosts(ctx, &schedulerpb.ListPostsRequest{})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if listResp.ErrorMsg != "" {
		t.Fatalf("ListPosts: unexpected error_msg %q", listResp.ErrorMsg)
	}
	if len(listResp.Posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(listResp.Posts))
	}
	got := listResp.Posts[0]
	if got.Post.Title != "hello" || got.Post.Text == nil || got.Post.Text.Body != "world" {
		t.Errorf("unexpected post round-trip: %+v", got.Post)
	}
	if got.Status != schedulerpb.StatusPending {
		t.Errorf("expected pending status, got %v", got.Status)
	}
}

func TestSchedulePost_InvalidPost_ReturnsErrorMsgNotRPCError(t *testing.T) {
	st := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := frontend.New(st, &fakeClient{}, logger)
	ctx := context.Background()

	resp, err := svc.SchedulePost(ctx, &schedulerpb.SchedulePostRequest{
		Post: schedulerpb.Post{Subreddit: "golang", ScheduledTime: 1, Text: &schedulerpb.TextPost{Body: "b"}},
	})
	if err != nil {
		t.Fatalf("SchedulePost must never return a transport error for validation failures: %v", err)
	}
	if resp.ErrorMsg == "" {
		t.Fatal("expected a validation error_msg for a post with no title")
	}
}

func TestEditPost_DeleteAbsentID_Succeeds(t *testing.T) {
	st := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := frontend.New(st, &fakeClient{}, logger)
	ctx := context.Background()

	resp, err := svc.EditPost(ctx, &schedulerpb.EditPostRequest{Operation: schedulerpb.EditOperationDelete, ID: 999})
	if err != nil {
		t.Fatalf("EditPost: %v", err)
	}
	if resp.ErrorMsg != "" {
		t.Errorf("unexpected error_msg: %q", resp.ErrorMsg)
	}
}

func TestListFlairs_RemoteFailure_ReturnsEmptyListNotError(t *testing.T) {
	st := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := frontend.New(st, &fakeClient{flairsErr: fmt.Errorf("boom")}, logger)
	ctx := context.Background()

	resp, err := svc.ListFlairs(ctx, &schedulerpb.ListFlairsRequest{Subreddit: "golang"})
	if err != nil {
		t.Fatalf("ListFlairs: %v", err)
	}
	if len(resp.Flairs) != 0 {
		t.Errorf("expected empty flair list on remote failure, got %d", len(resp.Flairs))
	}
}

func TestListFlairs_Success_ReturnsFlairs(t *testing.T) {
	st := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := frontend.New(st, &fakeClient{flairs: []reddit.Flair{{ID: "1", Text: "Discussion"}}}, logger)
	ctx := context.Background()

	resp, err := svc.ListFlairs(ctx, &schedulerpb.ListFlairsRequest{Subreddit: "golang"})
	if err != nil {
		t.Fatalf("ListFlairs: %v", err)
	}
	if len(resp.Flairs) != 1 || resp.Flairs[0].ID != "1" {
		t.Errorf("unexpected flairs: %+v", resp.Flairs)
	}
}
