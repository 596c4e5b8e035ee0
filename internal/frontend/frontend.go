// Package frontend implements the local RPC surface from spec.md §4.3: four
// operations translated directly into Store commands, plus a flair lookup
// that is the only path touching the remote API directly.
package frontend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jeanlucthumm/reddit-scheduler/internal/model"
	"github.com/jeanlucthumm/reddit-scheduler/internal/reddit"
	"github.com/jeanlucthumm/reddit-scheduler/internal/schedulerpb"
	"github.com/jeanlucthumm/reddit-scheduler/internal/store"
)

// flairConcurrency bounds how many ListFlairs calls may be in flight against
// the remote API at once (spec.md §4.3 "worker pool ≈ 10" — ListPosts,
// SchedulePost, and EditPost already get their back-pressure for free from
// the Store's own bounded command channel, so only the network-calling path
// needs an explicit limiter here).
const flairConcurrency = 10

// Servicer implements schedulerpb.SchedulerServer. Construct with New and
// register it with a *grpc.Server via schedulerpb.RegisterSchedulerServer.
type Servicer struct {
	store  *store.Store
	client reddit.Client
	flairs chan struct{} // semaphore, capacity flairConcurrency
	logger *slog.Logger
}

// New constructs a Servicer.
func New(st *store.Store, client reddit.Client, logger *slog.Logger) *Servicer {
	return &Servicer{
		store:  st,
		client: client,
		flairs: make(chan struct{}, flairConcurrency),
		logger: logger,
	}
}

var _ schedulerpb.SchedulerServer = (*Servicer)(nil)

func (s *Servicer) ListPosts(ctx context.Context, _ *schedulerpb.ListPostsRequest) (*schedulerpb.ListPostsResponse, error) {
	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return &schedulerpb.ListPostsResponse{ErrorMsg: errorMsg(err)}, nil
	}
	return &schedulerpb.ListPostsResponse{Posts: toWireEntries(entries)}, nil
}

func (s *Servicer) SchedulePost(ctx context.Context, req *schedulerpb.SchedulePostRequest) (*schedulerpb.SchedulePostResponse, error) {
	post, err := fromWirePost(req.Post)
	if err != nil {
		return &schedulerpb.SchedulePostResponse{ErrorMsg: err.Error()}, nil
	}
	if _, err := s.store.Add(ctx, post); err != nil {
		return &schedulerpb.SchedulePostResponse{ErrorMsg: errorMsg(err)}, nil
	}
	return &schedulerpb.SchedulePostResponse{}, nil
}

func (s *Servicer) EditPost(ctx context.Context, req *schedulerpb.EditPostRequest) (*schedulerpb.EditPostResponse, error) {
	// EditOperationDelete is the only member of the closed EditOperation
	// enum (spec.md §1 scopes anything beyond deletion out), so there is
	// nothing else to switch on here.
	if err := s.store.Delete(ctx, req.ID); err != nil {
		return &schedulerpb.EditPostResponse{ErrorMsg: errorMsg(err)}, nil
	}
	return &schedulerpb.EditPostResponse{}, nil
}

// ListFlairs is the only Frontend path that calls the remote API directly.
// A failure there is logged and answered with an empty list rather than a
// protocol error (spec.md §4.3): the CLI treats empty as "no flairs
// available".
func (s *Servicer) ListFlairs(ctx context.Context, req *schedulerpb.ListFlairsRequest) (*schedulerpb.ListFlairsResponse, error) {
	select {
	case s.flairs <- struct{}{}:
		defer func() { <-s.flairs }()
	case <-ctx.Done():
		return &schedulerpb.ListFlairsResponse{}, nil
	}

	flairs, err := s.client.ListUserSelectableFlairs(ctx, req.Subreddit)
	if err != nil {
		s.logger.Warn("frontend: list flairs failed", "subreddit", req.Subreddit, "error", err)
		return &schedulerpb.ListFlairsResponse{}, nil
	}

	out := make([]schedulerpb.Flair, len(flairs))
	for i, f := range flairs {
		out[i] = schedulerpb.Flair{ID: f.ID, Text: f.Text}
	}
	return &schedulerpb.ListFlairsResponse{Flairs: out}, nil
}

// errorMsg renders a Store error as the wire error_msg. Validation errors
// already carry a user-visible string (model.Post.Validate), infrastructure
// errors already carry the fixed opaque string (store.internalErrMsg), and
// a saturated or unresponsive Store yields store.ErrTimeout's text — every
// case just needs its text, never wrapping
// or re-logging (the Store already logged infrastructure failures).
func errorMsg(err error) string {
	return err.Error()
}

// ─── WIRE <-> DOMAIN CONVERSION ───────────────────────────────────────────────

func toWireEntries(entries []model.PostEntry) []schedulerpb.PostDbEntry {
	out := make([]schedulerpb.PostDbEntry, len(entries))
	for i, e := range entries {
		out[i] = schedulerpb.PostDbEntry{
			ID:     e.ID,
			Post:   toWirePost(e.Post),
			Status: toWireStatus(e.Status),
			Error:  e.Error,
		}
	}
	return out
}

func toWirePost(p model.Post) schedulerpb.Post {
	wire := schedulerpb.Post{
		Title:         p.Title,
		Subreddit:     p.Subreddit,
		ScheduledTime: p.ScheduledTime,
		FlairID:       p.FlairID,
		FlairText:     p.FlairText,
	}
	switch p.Data.Tag {
	case model.VariantText:
		wire.Text = &schedulerpb.TextPost{Body: p.Data.Text.Body}
	case model.VariantPoll:
		wire.Poll = &schedulerpb.PollPost{
			Selftext: p.Data.Poll.Selftext,
			Duration: p.Data.Poll.DurationDays,
			Options:  p.Data.Poll.Options,
		}
	case model.VariantImage:
		wire.Image = &schedulerpb.ImagePost{
			ImageData: p.Data.Image.ImageBytes,
			Extension: p.Data.Image.Extension,
			NSFW:      p.Data.Image.NSFW,
		}
	case model.VariantURL:
		wire.URL = &schedulerpb.UrlPost{URL: p.Data.URL.URL}
	}
	return wire
}

func toWireStatus(s model.Status) schedulerpb.Status {
	switch s {
	case model.StatusPending:
		return schedulerpb.StatusPending
	case model.StatusPosted:
		return schedulerpb.StatusPosted
	case model.StatusError:
		return schedulerpb.StatusError
	default:
		return schedulerpb.StatusUnknown
	}
}

// fromWirePost converts a request Post into the domain model, inferring Tag
// from whichever variant field the client set. A request with more than one
// variant field set is rejected here; model.Post.Validate catches the case
// where none is set.
func fromWirePost(p schedulerpb.Post) (model.Post, error) {
	set := 0
	for _, present := range []bool{p.Text != nil, p.Poll != nil, p.Image != nil, p.URL != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return model.Post{}, fmt.Errorf("invalid post, client should not have sent this: more than one data variant set")
	}

	out := model.Post{
		Title:         p.Title,
		Subreddit:     p.Subreddit,
		ScheduledTime: p.ScheduledTime,
		FlairID:       p.FlairID,
		FlairText:     p.FlairText,
	}

	switch {
	case p.Text != nil:
		out.Data = model.Data{Tag: model.VariantText, Text: &model.TextPost{Body: p.Text.Body}}
	case p.Poll != nil:
		out.Data = model.Data{Tag: model.VariantPoll, Poll: &model.PollPost{
			Selftext:     p.Poll.Selftext,
			DurationDays: p.Poll.Duration,
			Options:      p.Poll.Options,
		}}
	case p.Image != nil:
		out.Data = model.Data{Tag: model.VariantImage, Image: &model.ImagePost{
			ImageBytes: p.Image.ImageData,
			Extension:  p.Image.Extension,
			NSFW:       p.Image.NSFW,
		}}
	case p.URL != nil:
		out.Data = model.Data{Tag: model.VariantURL, URL: &model.URLPost{URL: p.URL.URL}}
	}

	if err := out.Validate(); err != nil {
		return model.Post{}, err
	}
	return out, nil
}
