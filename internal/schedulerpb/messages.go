// Package schedulerpb defines the local RPC schema from spec.md §4.3/§6:
// plain Go message structs, a JSON wire codec, and a hand-wired
// grpc.ServiceDesc, since no protoc invocation is available to generate the
// usual .pb.go stubs. The messages below are the Go-native shape of the
// conceptual protobuf schema in spec.md §6.
package schedulerpb

// TextPost is a self-post body.
type TextPost struct {
	Body string `json:"body"`
}

// PollPost is a poll attached to a self-post.
type PollPost struct {
	Selftext string   `json:"selftext"`
	Duration int32    `json:"duration"`
	Options  []string `json:"options"`
}

// ImagePost is an image submission.
type ImagePost struct {
	ImageData []byte `json:"image_data"`
	Extension string `json:"extension"`
	NSFW      bool   `json:"nsfw"`
}

// UrlPost is a link submission.
type UrlPost struct {
	URL string `json:"url"`
}

// Post is the wire shape of a scheduled post. Exactly one of Text, Poll,
// Image, URL is set, mirroring the conceptual oneof in spec.md §6.
type Post struct {
	Title         string     `json:"title"`
	Subreddit     string     `json:"subreddit"`
	ScheduledTime int64      `json:"scheduled_time"`
	Text          *TextPost  `json:"text,omitempty"`
	Poll          *PollPost  `json:"poll,omitempty"`
	Image         *ImagePost `json:"image,omitempty"`
	URL           *UrlPost   `json:"url,omitempty"`
	FlairID       string     `json:"flair_id"`
	FlairText     string     `json:"flair_text"`
}

// Status mirrors model.Status over the wire.
type Status int32

const (
	StatusUnknown Status = 0
	StatusPending Status = 1
	StatusPosted  Status = 2
	StatusError   Status = 3
)

// PostDbEntry is a persisted Post plus its derived status.
type PostDbEntry struct {
	ID     int64  `json:"id"`
	Post   Post   `json:"post"`
	Status Status `json:"status"`
	Error  string `json:"error"`
}

// Flair is a community-specific selectable label.
type Flair struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ─── REQUEST / RESPONSE ENVELOPES (spec.md §4.3) ─────────────────────────────

type ListPostsRequest struct{}

type ListPostsResponse struct {
	ErrorMsg string        `json:"error_msg"`
	Posts    []PostDbEntry `json:"posts"`
}

type SchedulePostRequest struct {
	Post Post `json:"post"`
}

type SchedulePostResponse struct {
	ErrorMsg string `json:"error_msg"`
}

// EditOperation is a closed sum type for EditPost; spec.md §1 scopes
// everything beyond deletion as a non-goal, so DELETE is the only member.
type EditOperation int32

const EditOperationDelete EditOperation = 0

type EditPostRequest struct {
	Operation EditOperation `json:"operation"`
	ID        int64         `json:"id"`
}

type EditPostResponse struct {
	ErrorMsg string `json:"error_msg"`
}

type ListFlairsRequest struct {
	Subreddit string `json:"subreddit"`
}

type ListFlairsResponse struct {
	Flairs []Flair `json:"flairs"`
}
