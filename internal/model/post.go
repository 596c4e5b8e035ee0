// Package model holds the core data types shared by the Store, Dispatcher,
// and Frontend: a user-authored Post, its persisted form PostEntry, and the
// status enumeration derived from a row's (posted, error) columns.
package model

import "fmt"

// Status is the derived lifecycle state of a PostEntry. It is never stored
// directly — it is reconstructed at read time from the posted and error
// columns (see store.rowStatus).
type Status int

const (
	StatusUnknown Status = iota
	StatusPending
	StatusPosted
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusPosted:
		return "POSTED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// VariantTag names the oneof branch set on a Post's Data field. It is also
// the value stored in the Queue.type column.
type VariantTag string

const (
	VariantText  VariantTag = "text"
	VariantPoll  VariantTag = "poll"
	VariantImage VariantTag = "image"
	VariantURL   VariantTag = "url"
)

// TextPost is a self-post with a plain body.
type TextPost struct {
	Body string
}

// PollPost is a self-post with a poll attached.
type PollPost struct {
	Selftext     string
	DurationDays int32 // 0 = unspecified, use remote default
	Options      []string
}

// ImagePost is an image submission. ImageBytes must be non-empty.
type ImagePost struct {
	ImageBytes []byte
	Extension  string // file suffix without the leading dot, e.g. "png"
	NSFW       bool
}

// URLPost is a link submission.
type URLPost struct {
	URL string
}

// Data is the tagged variant of a Post's content. Exactly one of the
// pointers is non-nil; Tag names which one.
type Data struct {
	Tag   VariantTag
	Text  *TextPost
	Poll  *PollPost
	Image *ImagePost
	URL   *URLPost
}

// Post is a user-authored content intent, not yet persisted.
type Post struct {
	Title         string
	Subreddit     string
	ScheduledTime int64 // absolute seconds since Unix epoch, non-zero
	Data          Data
	FlairID       string // "" means no flair
	FlairText     string // informational only
}

// PostEntry is a Post plus persistence metadata.
type PostEntry struct {
	ID     int64
	Post   Post
	Status Status
	Error  string // populated only when Status == StatusError
}

// Validate checks the invariants from spec §3: required top-level fields,
// a known Tag whose matching data variant is set, and variant-specific
// required sub-fields. Variant pointers other than the one Tag names are not
// inspected.
// It returns a human-readable error suitable for returning to an RPC caller
// verbatim — never wrap it, never log it above debug (spec §7 taxonomy #1).
func (p Post) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("invalid post, client should not have sent this: title is empty")
	}
	if p.Subreddit == "" {
		return fmt.Errorf("invalid post, client should not have sent this: subreddit is empty")
	}
	if p.ScheduledTime == 0 {
		return fmt.Errorf("invalid post, client should not have sent this: scheduled_time is unset")
	}

	switch p.Data.Tag {
	case VariantText:
		if p.Data.Text == nil {
			return fmt.Errorf("invalid post, client should not have sent this: text variant missing body")
		}
	case VariantPoll:
		if p.Data.Poll == nil || len(p.Data.Poll.Options) < 2 {
			return fmt.Errorf("invalid post, client should not have sent this: poll needs at least 2 options")
		}
	case VariantImage:
		if p.Data.Image == nil || len(p.Data.Image.ImageBytes) == 0 {
			return fmt.Errorf("cannot post empty image post")
		}
	case VariantURL:
		if p.Data.URL == nil || p.Data.URL.URL == "" {
			return fmt.Errorf("invalid post, client should not have sent this: url is empty")
		}
	default:
		return fmt.Errorf("invalid post, client should not have sent this: no data variant set")
	}

	return nil
}
