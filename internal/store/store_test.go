package store_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jeanlucthumm/reddit-scheduler/internal/model"
	"github.com/jeanlucthumm/reddit-scheduler/internal/store"
)

// ─── TEST INFRASTRUCTURE ──────────────────────────────────────────────────────

// newTestStore starts a Store backed by an in-memory SQLite database and
// returns it once Run has had a chance to create the schema. t.Cleanup
// cancels ctx so Run's own ctx.Done() case unwinds the goroutine; Quit is
// covered separately by TestQuit_StopsRunAndClosesDB.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// A private named in-memory database so each test gets an isolated
	// schema instead of sharing SQLite's single anonymous :memory: handle
	// across parallel tests.
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

	// Give Run a moment to open the db and create the schema before the
	// first command is submitted. Submit's own timeout makes this a soft
	// wait rather than a race: a slow Run just means the first Submit call
	// blocks briefly on the channel send.
	time.Sleep(10 * time.Millisecond)
	return st
}

func textPost(title, subreddit string, scheduled int64, body string) model.Post {
	return model.Post{
		Title:         title,
		Subreddit:     subreddit,
		ScheduledTime: scheduled,
		Data: model.Data{
			Tag:  model.VariantText,
			Text: &model.TextPost{Body: body},
		},
	}
}

// ─── SCENARIO 1: text post happy path (spec §8 scenario 1, add/list half) ────

func TestAdd_ThenListAll_ReturnsPendingEntry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	msg, err := st.Add(ctx, textPost("T", "s", 1, "b"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if msg != "" {
		t.Fatalf("Add: expected empty reply, got %q", msg)
	}

	entries, err := st.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Status != model.StatusPending {
		t.Errorf("expected PENDING, got %s", e.Status)
	}
	if e.Post.Title != "T" || e.Post.Subreddit != "s" {
		t.Errorf("unexpected post fields: %+v", e.Post)
	}
	if e.Post.Data.Tag != model.VariantText || e.Post.Data.Text.Body != "b" {
		t.Errorf("unexpected data variant: %+v", e.Post.Data)
	}
}

// ─── BOUNDARY BEHAVIORS (spec §8) ─────────────────────────────────────────────

func TestAdd_Validation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name string
		post model.Post
	}{
		{"empty title", textPost("", "s", 1, "b")},
		{"empty subreddit", textPost("T", "", 1, "b")},
		{"zero scheduled_time", textPost("T", "s", 0, "b")},
		{"empty image", model.Post{
			Title: "T", Subreddit: "s", ScheduledTime: 1,
			Data: model.Data{Tag: model.VariantImage, Image: &model.ImagePost{Extension: "png"}},
		}},
		{"poll with one option", model.Post{
			Title: "T", Subreddit: "s", ScheduledTime: 1,
			Data: model.Data{Tag: model.VariantPoll, Poll: &model.PollPost{Options: []string{"a"}}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := st.Add(ctx, tc.post)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}

	entries, err := st.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no rows inserted by failed adds, got %d", len(entries))
	}
}

func TestDelete_AbsentID_IsNoop(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Delete(ctx, 999); err != nil {
		t.Fatalf("Delete on absent id: %v", err)
	}
}

func TestMarkPosted_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Add(ctx, textPost("T", "s", 1, "b")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	entries, _ := st.ListAll(ctx)
	id := entries[0].ID

	if err := st.MarkPosted(ctx, id); err != nil {
		t.Fatalf("first MarkPosted: %v", err)
	}
	if err := st.MarkPosted(ctx, id); err != nil {
		t.Fatalf("second MarkPosted: %v", err)
	}

	entries, _ = st.ListAll(ctx)
	if entries[0].Status != model.StatusPosted {
		t.Errorf("expected POSTED, got %s", entries[0].Status)
	}
}

// ─── ELIGIBILITY AND ERROR RETRY (spec §8 scenario 4, store half) ────────────

func TestListEligible_ExcludesPosted_IncludesError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour).Unix()

	if _, err := st.Add(ctx, textPost("pending", "s", past, "b")); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Add(ctx, textPost("posted", "s", past, "b")); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Add(ctx, textPost("future", "s", time.Now().Add(time.Hour).Unix(), "b")); err != nil {
		t.Fatal(err)
	}

	all, _ := st.ListAll(ctx)
	var postedID, errorID int64
	for _, e := range all {
		switch e.Post.Title {
		case "posted":
			postedID = e.ID
		}
	}
	if err := st.MarkPosted(ctx, postedID); err != nil {
		t.Fatal(err)
	}

	if _, err := st.Add(ctx, textPost("erroring", "s", past, "b")); err != nil {
		t.Fatal(err)
	}
	all, _ = st.ListAll(ctx)
	for _, e := range all {
		if e.Post.Title == "erroring" {
			errorID = e.ID
		}
	}
	if err := st.MarkError(ctx, errorID, "boom"); err != nil {
		t.Fatal(err)
	}

	eligible, err := st.ListEligible(ctx)
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}

	titles := make(map[string]bool)
	for _, e := range eligible {
		titles[e.Post.Title] = true
	}
	if !titles["pending"] {
		t.Error("expected pending post to be eligible")
	}
	if !titles["erroring"] {
		t.Error("expected errored post to remain eligible for retry")
	}
	if titles["posted"] {
		t.Error("posted post must never be eligible again")
	}
	if titles["future"] {
		t.Error("future-scheduled post must not be eligible yet")
	}
}

// ─── MULTI-LINE ERROR TEXT ROUND-TRIPS BYTE-FOR-BYTE (spec §8 scenario 6) ────

func TestMarkError_PreservesMultilineText(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Add(ctx, model.Post{
		Title: "T", Subreddit: "s", ScheduledTime: 1,
		Data: model.Data{Tag: model.VariantPoll, Poll: &model.PollPost{Options: []string{"a", "b"}}},
	}); err != nil {
		t.Fatal(err)
	}

	entries, _ := st.ListAll(ctx)
	id := entries[0].ID

	want := "line1\nline2"
	if err := st.MarkError(ctx, id, want); err != nil {
		t.Fatal(err)
	}

	entries, _ = st.ListAll(ctx)
	got := entries[0]
	if got.Status != model.StatusError {
		t.Fatalf("expected ERROR, got %s", got.Status)
	}
	if got.Error != want {
		t.Errorf("error text mismatch: got %q want %q", got.Error, want)
	}
}

// ─── FLAIR NULL NORMALIZATION (spec §3 invariant 5) ──────────────────────────

func TestAdd_EmptyFlairID_NormalizesToNoFlair(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	post := textPost("T", "s", 1, "b")
	post.FlairID = ""
	if _, err := st.Add(ctx, post); err != nil {
		t.Fatal(err)
	}

	entries, _ := st.ListAll(ctx)
	if entries[0].Post.FlairID != "" {
		t.Errorf("expected empty flair id, got %q", entries[0].Post.FlairID)
	}
}

// ─── QUIT (spec §4.4) ─────────────────────────────────────────────────────────

// TestQuit_StopsRunAndClosesDB exercises the KindQuit path directly, on a ctx
// that is never cancelled, distinct from newTestStore's cleanup which stops
// Run via ctx cancellation instead.
func TestQuit_StopsRunAndClosesDB(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st := store.New(path, logger)

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- st.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)

	quitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := st.Quit(quitCtx); err != nil {
		t.Fatalf("Quit: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Quit")
	}
}
