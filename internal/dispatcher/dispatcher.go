// Package dispatcher polls the store for eligible posts and submits each one
// to the remote content API, reporting the outcome back to the store.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jeanlucthumm/reddit-scheduler/internal/model"
	"github.com/jeanlucthumm/reddit-scheduler/internal/reddit"
	"github.com/jeanlucthumm/reddit-scheduler/internal/store"
)

// Config holds tuning parameters for the Dispatcher. Zero values are
// replaced with the defaults in DefaultConfig.
type Config struct {
	// Interval is how often the poll loop checks for eligible posts.
	Interval time.Duration

	// ScratchDir is where image posts are materialized to disk before
	// submission, since the remote API consumes a path, not a buffer.
	ScratchDir string

	// DryRun, when true, logs what would be submitted and marks the post
	// posted without contacting the remote API. Matches the DRY_RUN env var.
	DryRun bool
}

// DefaultConfig returns the Dispatcher's production defaults.
func DefaultConfig() Config {
	return Config{
		Interval:   5 * time.Second,
		ScratchDir: filepath.Join(os.TempDir(), "reddit-scheduler"),
	}
}

// Dispatcher owns the poll loop. It holds no database handle of its own —
// all persistence goes through store.Store's command channel.
type Dispatcher struct {
	store  *store.Store
	client reddit.Client
	cfg    Config
	logger *slog.Logger
}

// New constructs a Dispatcher. Call Run to start the poll loop.
func New(st *store.Store, client reddit.Client, cfg Config, logger *slog.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = def.ScratchDir
	}
	return &Dispatcher{store: st, client: client, cfg: cfg, logger: logger}
}

// Run blocks, polling on cfg.Interval until ctx is cancelled. The ticker
// select includes ctx.Done() alongside the ticker channel so cancellation is
// observed promptly instead of only between ticks.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher: starting", "interval", d.cfg.Interval, "dry_run", d.cfg.DryRun)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	d.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher: stopping")
			return nil
		case <-ticker.C:
			d.pollOnce(ctx)
		}
	}
}

// pollOnce fetches the current set of eligible posts and submits each one in
// turn. A failure dispatching one entry never stops the others.
func (d *Dispatcher) pollOnce(ctx context.Context) {
	entries, err := d.store.ListEligible(ctx)
	if err != nil {
		d.logger.Error("dispatcher: list eligible failed", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}
	d.logger.Debug("dispatcher: eligible posts found", "count", len(entries))

	for _, e := range entries {
		d.dispatch(ctx, e)
	}
}

// dispatch submits one post entry and reports the outcome back to the store.
// Submission failures are persisted via mark_error (not cleared on a later
// successful retry — stale error text is left in place by design of the
// derive-status-from-columns scheme) and the post remains eligible for the
// next poll cycle, giving at-least-once, unbounded retry semantics.
func (d *Dispatcher) dispatch(ctx context.Context, e model.PostEntry) {
	log := d.logger.With("post_id", e.ID, "subreddit", e.Post.Subreddit)

	if d.cfg.DryRun {
		log.Info("dispatcher: dry run, skipping submission", "title", e.Post.Title)
		if err := d.store.MarkPosted(ctx, e.ID); err != nil {
			log.Error("dispatcher: dry run mark_posted failed", "error", err)
		}
		return
	}

	if err := d.submit(ctx, e.Post); err != nil {
		log.Warn("dispatcher: submission failed", "error", err)
		if mErr := d.store.MarkError(ctx, e.ID, reddit.Format(err)); mErr != nil {
			log.Error("dispatcher: mark_error failed", "error", mErr)
		}
		return
	}

	log.Info("dispatcher: post submitted")
	if err := d.store.MarkPosted(ctx, e.ID); err != nil {
		log.Error("dispatcher: mark_posted failed", "error", err)
	}
}

// submit dispatches post to the remote API according to its data variant.
func (d *Dispatcher) submit(ctx context.Context, post model.Post) error {
	switch post.Data.Tag {
	case model.VariantText:
		return d.client.SubmitText(ctx, reddit.SubmitTextParams{
			Subreddit: post.Subreddit,
			Title:     post.Title,
			Body:      post.Data.Text.Body,
			FlairID:   post.FlairID,
		})

	case model.VariantPoll:
		return d.client.SubmitPoll(ctx, reddit.SubmitPollParams{
			Subreddit:    post.Subreddit,
			Title:        post.Title,
			Options:      post.Data.Poll.Options,
			Selftext:     post.Data.Poll.Selftext,
			DurationDays: post.Data.Poll.DurationDays,
			FlairID:      post.FlairID,
		})

	case model.VariantImage:
		path, err := d.materializeImage(post.Data.Image)
		if err != nil {
			return fmt.Errorf("dispatcher: materialize image: %w", err)
		}
		defer os.Remove(path)
		return d.client.SubmitImage(ctx, reddit.SubmitImageParams{
			Subreddit: post.Subreddit,
			Title:     post.Title,
			ImagePath: path,
			NSFW:      post.Data.Image.NSFW,
			FlairID:   post.FlairID,
		})

	case model.VariantURL:
		return d.client.SubmitURL(ctx, reddit.SubmitURLParams{
			Subreddit: post.Subreddit,
			Title:     post.Title,
			URL:       post.Data.URL.URL,
			FlairID:   post.FlairID,
		})

	default:
		// Unreachable: model.Post.Validate rejects unknown tags before the
		// store ever persists them.
		return fmt.Errorf("dispatcher: unknown data variant %s", post.Data.Tag)
	}
}

// materializeImage writes an image post's bytes to a scratch file and
// returns its path, since the remote API's submission call consumes a path,
// not a buffer. Callers must remove the file once the submission completes.
func (d *Dispatcher) materializeImage(img *model.ImagePost) (string, error) {
	if err := os.MkdirAll(d.cfg.ScratchDir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	name := uuid.NewString()
	if img.Extension != "" {
		name += "." + img.Extension
	}
	path := filepath.Join(d.cfg.ScratchDir, name)
	if err := os.WriteFile(path, img.ImageBytes, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}
