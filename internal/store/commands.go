package store

import "github.com/jeanlucthumm/reddit-scheduler/internal/model"

// Kind is a closed sum type identifying what a Command asks the Store to
// do. The source this daemon is modeled on identified commands by string
// literals matched with an if/elif chain that silently dropped anything it
// didn't recognize; Kind plus an exhaustive switch in Store.handle replaces
// that with a compile-time-checkable set and an explicit panic on the
// otherwise-impossible default arm (see Store.handle; KindQuit is handled
// in Store.Run before that switch).
type Kind int

const (
	KindAdd Kind = iota
	KindListAll
	KindListEligible
	KindDelete
	KindMarkPosted
	KindMarkError
	KindQuit
)

// markErrorPayload is the payload for KindMarkError.
type markErrorPayload struct {
	ID  int64
	Msg string
}

// Reply is what a Command's oneshot channel carries back to the caller.
// Exactly one of the three outcomes holds:
//   - IsErr is true: Msg carries an opaque internal-error string (spec §7
//     taxonomy #2/#3); this is the infrastructure-failure path.
//   - IsErr is false and Msg != "": a validation error, returned verbatim.
//   - IsErr is false and Msg == "": success. Entries carries the payload
//     for list_all/list_eligible; the other kinds have nothing to return.
type Reply struct {
	IsErr   bool
	Msg     string
	Entries []model.PostEntry
}

// Command carries a Kind, its kind-specific payload, and a private
// single-shot reply channel (spec §9 "Oneshot reply channels"). Construct
// one with newCommand; callers never populate reply themselves.
type Command struct {
	Kind    Kind
	Payload any
	reply   chan Reply
}

func newCommand(kind Kind, payload any) *Command {
	return &Command{
		Kind:    kind,
		Payload: payload,
		reply:   make(chan Reply, 1),
	}
}
