// Package reddit defines the remote submission capability the Dispatcher
// and the Frontend's flair-listing path consume (spec §6), and provides a
// concrete implementation backed by Reddit's OAuth2 script-app API.
package reddit

import "context"

// Flair is a community-specific selectable label.
type Flair struct {
	ID   string
	Text string
}

// SubmitTextParams holds the inputs for a self-post submission.
type SubmitTextParams struct {
	Subreddit string
	Title     string
	Body      string
	FlairID   string // "" means no flair
}

// SubmitPollParams holds the inputs for a poll-post submission.
type SubmitPollParams struct {
	Subreddit    string
	Title        string
	Options      []string
	Selftext     string
	DurationDays int32 // 0 = let Reddit use its default
	FlairID      string
}

// SubmitImageParams holds the inputs for an image-post submission. ImagePath
// points at a file already materialized on disk — the Dispatcher is
// responsible for writing ImageBytes there before calling SubmitImage,
// because the remote API consumes a path, not a buffer (spec §4.2).
type SubmitImageParams struct {
	Subreddit string
	Title     string
	ImagePath string
	NSFW      bool
	FlairID   string
}

// SubmitURLParams holds the inputs for a link-post submission.
type SubmitURLParams struct {
	Subreddit string
	Title     string
	URL       string
	FlairID   string
}

// Client is the capability the core depends on (spec §6). Implementations
// must be safe for concurrent use — the Dispatcher and the Frontend's
// ListFlairs path share one Client instance read-only.
type Client interface {
	SubmitText(ctx context.Context, p SubmitTextParams) error
	SubmitPoll(ctx context.Context, p SubmitPollParams) error
	SubmitImage(ctx context.Context, p SubmitImageParams) error
	SubmitURL(ctx context.Context, p SubmitURLParams) error

	// ListUserSelectableFlairs returns the flairs the authenticated user may
	// attach to a post in subreddit. A non-nil error means the lookup
	// failed entirely; callers (Frontend) should treat that as "no flairs
	// available" rather than propagating a protocol error (spec §4.3).
	ListUserSelectableFlairs(ctx context.Context, subreddit string) ([]Flair, error)
}
