// Package store implements the single-writer database actor from spec §4.1:
// one goroutine owns the *sql.DB handle, every read and write is serialized
// through a single bounded command channel, and replies travel back on a
// private oneshot channel per command. Nothing outside this package ever
// touches the database handle directly.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver, pure Go, no cgo

	"github.com/jeanlucthumm/reddit-scheduler/internal/model"
	"github.com/jeanlucthumm/reddit-scheduler/internal/postcodec"
)

// queueCapacity bounds the command channel (spec §4.1 back-pressure).
const queueCapacity = 100

// DefaultLockTimeout is how long Submit waits for a free slot in the
// command channel, and how long a caller waits for a reply, before giving
// up (spec §4.1, §5).
const DefaultLockTimeout = 10 * time.Second

// ErrTimeout is returned by Submit when the command channel is saturated or
// the Store does not reply within the lock timeout. Spec §7 taxonomy #3:
// surfaced to RPC callers as an internal error, never corrupts state.
var ErrTimeout = errors.New("store: service timeout: service may be overloaded")

// internalErrMsg is the fixed opaque string returned to callers for any
// infrastructure failure (spec §7 taxonomy #2). Full detail is logged, never
// returned over the wire.
const internalErrMsg = "internal error. see service logs"

// Store owns the Queue table. Construct with New, then run its loop with
// Run from its own long-lived goroutine; submit work with Submit (or the
// typed helpers below) from any other goroutine.
type Store struct {
	path        string
	db          *sql.DB
	cmds        chan *Command
	lockTimeout time.Duration
	logger      *slog.Logger
}

// New constructs a Store. The database connection is NOT opened here —
// that happens inside Run, so every SQL operation (including schema
// creation) runs on the same goroutine, avoiding any driver thread-affinity
// surprises (spec §9).
func New(path string, logger *slog.Logger) *Store {
	return &Store{
		path:        path,
		cmds:        make(chan *Command, queueCapacity),
		lockTimeout: DefaultLockTimeout,
		logger:      logger,
	}
}

// Run opens the database, creates the schema idempotently, and then
// services commands until it receives KindQuit or ctx is cancelled. It is
// meant to be the body of the Store's one owning goroutine:
//
//	go func() { if err := st.Run(ctx); err != nil { log.Error(...) } }()
func (s *Store) Run(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("store: open %q: %w", s.path, err)
	}
	defer db.Close()

	// SQLite allows exactly one writer. A single connection serializes all
	// driver-level access underneath the command loop that already
	// serializes it at the application level.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL`); err != nil {
		return fmt.Errorf("store: set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA synchronous = NORMAL`); err != nil {
		return fmt.Errorf("store: set synchronous=NORMAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, queryCreateTable); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}

	s.db = db
	s.logger.Info("store: ready", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("store: context cancelled, stopping")
			return nil
		case cmd := <-s.cmds:
			if cmd.Kind == KindQuit {
				s.logger.Debug("store: stopping on quit command")
				cmd.reply <- Reply{}
				return nil
			}
			s.handle(ctx, cmd)
		}
	}
}

// Submit enqueues cmd and blocks for its reply, both bounded by the lock
// timeout. It is safe to call from any number of goroutines concurrently;
// ordering between concurrent submitters beyond FIFO-into-channel is not
// guaranteed (spec §5).
func (s *Store) Submit(ctx context.Context, cmd *Command) (Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return Reply{}, ErrTimeout
	}

	select {
	case r := <-cmd.reply:
		return r, nil
	case <-ctx.Done():
		return Reply{}, ErrTimeout
	}
}

// ─── TYPED HELPERS ────────────────────────────────────────────────────────────
// Thin wrappers so callers (Frontend, Dispatcher) never construct a Command
// by hand.

func (s *Store) Add(ctx context.Context, p model.Post) (string, error) {
	r, err := s.Submit(ctx, newCommand(KindAdd, p))
	if err != nil {
		return "", err
	}
	if r.IsErr {
		return "", fmt.Errorf("%s", r.Msg)
	}
	if r.Msg != "" {
		return r.Msg, errors.New(r.Msg)
	}
	return "", nil
}

func (s *Store) ListAll(ctx context.Context) ([]model.PostEntry, error) {
	r, err := s.Submit(ctx, newCommand(KindListAll, nil))
	if err != nil {
		return nil, err
	}
	if r.IsErr {
		return nil, fmt.Errorf("%s", r.Msg)
	}
	return r.Entries, nil
}

func (s *Store) ListEligible(ctx context.Context) ([]model.PostEntry, error) {
	r, err := s.Submit(ctx, newCommand(KindListEligible, nil))
	if err != nil {
		return nil, err
	}
	if r.IsErr {
		return nil, fmt.Errorf("%s", r.Msg)
	}
	return r.Entries, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	r, err := s.Submit(ctx, newCommand(KindDelete, id))
	if err != nil {
		return err
	}
	if r.IsErr {
		return fmt.Errorf("%s", r.Msg)
	}
	return nil
}

func (s *Store) MarkPosted(ctx context.Context, id int64) error {
	r, err := s.Submit(ctx, newCommand(KindMarkPosted, id))
	if err != nil {
		return err
	}
	if r.IsErr {
		return fmt.Errorf("%s", r.Msg)
	}
	return nil
}

func (s *Store) MarkError(ctx context.Context, id int64, msg string) error {
	r, err := s.Submit(ctx, newCommand(KindMarkError, markErrorPayload{ID: id, Msg: msg}))
	if err != nil {
		return err
	}
	if r.IsErr {
		return fmt.Errorf("%s", r.Msg)
	}
	return nil
}

// Quit asks the Store to close its database and return from Run. Callers
// should stop submitting new commands once Quit has been sent.
func (s *Store) Quit(ctx context.Context) error {
	_, err := s.Submit(ctx, newCommand(KindQuit, nil))
	return err
}

// ─── COMMAND HANDLING ─────────────────────────────────────────────────────────

func (s *Store) handle(ctx context.Context, cmd *Command) {
	switch cmd.Kind {
	case KindAdd:
		s.handleAdd(ctx, cmd)
	case KindListAll:
		s.handleList(ctx, cmd, queryAll)
	case KindListEligible:
		s.handleList(ctx, cmd, queryEligible)
	case KindDelete:
		s.handleDelete(ctx, cmd)
	case KindMarkPosted:
		s.handleMarkPosted(ctx, cmd)
	case KindMarkError:
		s.handleMarkError(ctx, cmd)
	default:
		// Kind values are only ever produced by this package's own
		// constructors (newCommand + the typed helpers above), so reaching
		// here means a programming error, not bad input.
		panic(fmt.Sprintf("store: unhandled command kind %d", cmd.Kind))
	}
}

func (s *Store) handleAdd(ctx context.Context, cmd *Command) {
	post := cmd.Payload.(model.Post)

	if err := post.Validate(); err != nil {
		cmd.reply <- Reply{Msg: err.Error()}
		return
	}

	blob, err := postcodec.Encode(post.Data)
	if err != nil {
		s.logger.Error("store: encode post data", "error", err)
		cmd.reply <- Reply{IsErr: true, Msg: internalErrMsg}
		return
	}

	var flairID sql.NullString
	if post.FlairID != "" {
		flairID = sql.NullString{String: post.FlairID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, queryInsert,
		string(post.Data.Tag), post.Title, post.Subreddit, blob, post.ScheduledTime, flairID)
	if err != nil {
		s.logger.Error("store: insert post", "error", err, "title", post.Title)
		cmd.reply <- Reply{IsErr: true, Msg: internalErrMsg}
		return
	}

	cmd.reply <- Reply{}
}

func (s *Store) handleList(ctx context.Context, cmd *Command, query string) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.logger.Error("store: list query", "error", err)
		cmd.reply <- Reply{IsErr: true, Msg: internalErrMsg}
		return
	}
	defer rows.Close()

	var entries []model.PostEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			s.logger.Error("store: scan row", "error", err)
			cmd.reply <- Reply{IsErr: true, Msg: internalErrMsg}
			return
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("store: list rows", "error", err)
		cmd.reply <- Reply{IsErr: true, Msg: internalErrMsg}
		return
	}

	cmd.reply <- Reply{Entries: entries}
}

func (s *Store) handleDelete(ctx context.Context, cmd *Command) {
	id := cmd.Payload.(int64)
	if _, err := s.db.ExecContext(ctx, queryDelete, id); err != nil {
		s.logger.Error("store: delete", "error", err, "id", id)
		cmd.reply <- Reply{IsErr: true, Msg: internalErrMsg}
		return
	}
	cmd.reply <- Reply{}
}

func (s *Store) handleMarkPosted(ctx context.Context, cmd *Command) {
	id := cmd.Payload.(int64)
	if _, err := s.db.ExecContext(ctx, queryMarkPosted, id); err != nil {
		s.logger.Error("store: mark posted", "error", err, "id", id)
		cmd.reply <- Reply{IsErr: true, Msg: internalErrMsg}
		return
	}
	cmd.reply <- Reply{}
}

func (s *Store) handleMarkError(ctx context.Context, cmd *Command) {
	p := cmd.Payload.(markErrorPayload)
	if _, err := s.db.ExecContext(ctx, queryMarkError, p.Msg, p.ID); err != nil {
		s.logger.Error("store: mark error", "error", err, "id", p.ID)
		cmd.reply <- Reply{IsErr: true, Msg: internalErrMsg}
		return
	}
	cmd.reply <- Reply{}
}

// rowScanner is satisfied by *sql.Rows; factored out so tests could stub it
// if ever needed.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(rs rowScanner) (model.PostEntry, error) {
	var (
		id            int64
		typ           string
		title         string
		subreddit     string
		blob          []byte
		scheduledTime int64
		posted        int64
		flairID       sql.NullString
		errText       sql.NullString
	)

	if err := rs.Scan(&id, &typ, &title, &subreddit, &blob, &scheduledTime, &posted, &flairID, &errText); err != nil {
		return model.PostEntry{}, fmt.Errorf("scan: %w", err)
	}
	_ = typ // denormalized tag, kept only for ad-hoc queries (spec §9)

	data, err := postcodec.Decode(blob)
	if err != nil {
		return model.PostEntry{}, fmt.Errorf("decode data for row %d: %w", id, err)
	}

	post := model.Post{
		Title:         title,
		Subreddit:     subreddit,
		ScheduledTime: scheduledTime,
		Data:          data,
	}
	if flairID.Valid {
		post.FlairID = flairID.String
	}

	entry := model.PostEntry{
		ID:     id,
		Post:   post,
		Status: rowStatus(posted, errText),
	}
	if errText.Valid && entry.Status == model.StatusError {
		entry.Error = errText.String
	}

	return entry, nil
}

// rowStatus derives a row's status from (posted, error): posted = 1 ->
// POSTED, even when error text from an earlier failed attempt is still
// stored; else error IS NOT NULL -> ERROR; else PENDING.
// Keeping ERROR entries eligible (posted stays 0) is what lets the
// Dispatcher retry them (spec §4.2).
func rowStatus(posted int64, errText sql.NullString) model.Status {
	if posted == 1 {
		return model.StatusPosted
	}
	if errText.Valid {
		return model.StatusError
	}
	return model.StatusPending
}
