package dispatcher_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jeanlucthumm/reddit-scheduler/internal/dispatcher"
	"github.com/jeanlucthumm/reddit-scheduler/internal/model"
	"github.com/jeanlucthumm/reddit-scheduler/internal/reddit"
	"github.com/jeanlucthumm/reddit-scheduler/internal/store"
)

// fakeClient is a hand-rolled reddit.Client test double; no generated mocks
// are used anywhere in this module.
type fakeClient struct {
	submitErr error
	submitted int
}

func (f *fakeClient) SubmitText(ctx context.Context, p reddit.SubmitTextParams) error {
	f.submitted++
	return f.submitErr
}
func (f *fakeClient) SubmitPoll(ctx context.Context, p reddit.SubmitPollParams) error {
	f.submitted++
	return f.submitErr
}
func (f *fakeClient) SubmitImage(ctx context.Context, p reddit.SubmitImageParams) error {
	f.submitted++
	return f.submitErr
}
func (f *fakeClient) SubmitURL(ctx context.Context, p reddit.SubmitURLParams) error {
	f.submitted++
	return f.submitErr
}
func (f *fakeClient) ListUserSelectableFlairs(ctx context.Context, subreddit string) ([]reddit.Flair, error) {
	return nil, nil
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

func textPost(title string, scheduled int64) model.Post {
	return model.Post{
		Title:         title,
		Subreddit:     "golang",
		ScheduledTime: scheduled,
		Data: model.Data{
			Tag:  model.VariantText,
			Text: &model.TextPost{Body: "body"},
		},
	}
}

func TestDispatch_SuccessfulSubmission_MarksPosted(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Minute).Unix()

	if _, err := st.Add(ctx, textPost("hello", past)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	client := &fakeClient{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := dispatcher.New(st, client, dispatcher.Config{Interval: time.Hour}, logger)

	entries, _ := st.ListEligible(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 eligible entry, got %d", len(entries))
	}

	dctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	go d.Run(dctx)

	// Poll until the entry transitions or the timeout fires.
	deadline := time.Now().Add(900 * time.Millisecond)
	for time.Now().Before(deadline) {
		all, _ := st.ListAll(ctx)
		if len(all) == 1 && all[0].Status == model.StatusPosted {
			if client.submitted != 1 {
				t.Errorf("expected 1 submission, got %d", client.submitted)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("post was never marked posted")
}

func TestDispatch_FailedSubmission_MarksErrorAndStaysEligible(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Minute).Unix()

	if _, err := st.Add(ctx, textPost("boom", past)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	client := &fakeClient{submitErr: &reddit.SubmissionError{
		Items: []reddit.ItemError{{ErrorType: "RATELIMIT", Message: "slow down"}},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := dispatcher.New(st, client, dispatcher.Config{Interval: time.Hour}, logger)

	dctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	go d.Run(dctx)

	deadline := time.Now().Add(900 * time.Millisecond)
	for time.Now().Before(deadline) {
		all, _ := st.ListAll(ctx)
		if len(all) == 1 && all[0].Status == model.StatusError {
			if all[0].Error != "-> RATELIMIT: slow down" {
				t.Errorf("unexpected error text: %q", all[0].Error)
			}
			eligible, _ := st.ListEligible(ctx)
			if len(eligible) != 1 {
				t.Errorf("expected errored post to remain eligible, got %d eligible", len(eligible))
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("post was never marked error")
}

func TestDispatch_DryRun_NeverCallsClient(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Minute).Unix()

	if _, err := st.Add(ctx, textPost("dry", past)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	client := &fakeClient{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := dispatcher.New(st, client, dispatcher.Config{Interval: time.Hour, DryRun: true}, logger)

	dctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	go d.Run(dctx)

	deadline := time.Now().Add(900 * time.Millisecond)
	for time.Now().Before(deadline) {
		all, _ := st.ListAll(ctx)
		if len(all) == 1 && all[0].Status == model.StatusPosted {
			if client.submitted != 0 {
				t.Errorf("dry run must not call the remote client, got %d calls", client.submitted)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("dry run post was never marked posted")
}
