// Package board is the optimistic kanban store used by clients of the pipeline API.
//
// A Board holds a transient copy of pipeline cards (investors on a longlist or deals on the deal
// kanban). Moves are applied to the copy immediately and then committed to the server of record;
// a failed commit rolls the card back. Gated statuses (CONTACTED for investors) are applied
// optimistically but their commit waits for Confirm, Cancel or expiry of the pending record.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrUnknownCard  = errors.New("unknown card")
	ErrNoTarget     = errors.New("drop target has no status")
	ErrNoPending    = errors.New("no pending transition")
	ErrCommitFailed = errors.New("commit failed")
)

// Committer writes a status change to the server of record.
type Committer[S comparable] interface {
	Commit(ctx context.Context, key string, to S) error
}

// CommitFunc adapts a function to Committer.
type CommitFunc[S comparable] func(ctx context.Context, key string, to S) error

func (f CommitFunc[S]) Commit(ctx context.Context, key string, to S) error { return f(ctx, key, to) }

// Accessors tell the board how to read and rewrite cards of type T.
type Accessors[T any, S comparable] struct {
	Key        func(T) string
	Status     func(T) S
	WithStatus func(T, S) T
}

// DropTarget is where a card was dropped: either a column or another card.
type DropTarget[S comparable] struct {
	Column  *S
	OverKey string
}

func Column[S comparable](status S) DropTarget[S] { return DropTarget[S]{Column: &status} }

func OverCard[S comparable](key string) DropTarget[S] { return DropTarget[S]{OverKey: key} }

type Outcome string

const (
	OutcomeNoop       Outcome = "noop"
	OutcomeCommitted  Outcome = "committed"
	OutcomePending    Outcome = "pending"
	OutcomeRolledBack Outcome = "rolled_back"
	OutcomeCancelled  Outcome = "cancelled"
)

// Pending is a transition applied to the board whose commit waits for confirmation.
type Pending[S comparable] struct {
	Key       string
	From      S
	To        S
	CreatedAt time.Time
}

// Event reports the resolution of a move; clients show it as a confirmation or error toast.
type Event[S comparable] struct {
	Key     string
	From    S
	To      S
	Outcome Outcome
	Err     error
}

type Option[T any, S comparable] func(*Board[T, S])

// WithGate marks statuses whose commit is deferred until Confirm.
func WithGate[T any, S comparable](gated ...S) Option[T, S] {
	return func(b *Board[T, S]) {
		for _, s := range gated {
			b.gated[s] = true
		}
	}
}

func WithClock[T any, S comparable](now func() time.Time) Option[T, S] {
	return func(b *Board[T, S]) { b.now = now }
}

// WithPendingTTL makes ExpirePending cancel pending transitions older than ttl.
func WithPendingTTL[T any, S comparable](ttl time.Duration) Option[T, S] {
	return func(b *Board[T, S]) { b.ttl = ttl }
}

func WithNotifier[T any, S comparable](fn func(Event[S])) Option[T, S] {
	return func(b *Board[T, S]) { b.notify = fn }
}

type Board[T any, S comparable] struct {
	mu        sync.Mutex
	cards     []T
	index     map[string]int
	acc       Accessors[T, S]
	committer Committer[S]
	gated     map[S]bool
	pending   map[string]Pending[S]
	now       func() time.Time
	ttl       time.Duration
	notify    func(Event[S])
}

func New[T any, S comparable](cards []T, acc Accessors[T, S], committer Committer[S], opts ...Option[T, S]) *Board[T, S] {
	b := &Board[T, S]{
		acc:       acc,
		committer: committer,
		gated:     map[S]bool{},
		pending:   map[string]Pending[S]{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.load(cards)
	return b
}

// Replace swaps the board contents for a fresh server snapshot. Pending transitions for cards
// that are still present are kept and re-applied on top of the snapshot.
func (b *Board[T, S]) Replace(cards []T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.load(cards)
	for key, p := range b.pending {
		pos, ok := b.index[key]
		if !ok {
			delete(b.pending, key)
			continue
		}
		p.From = b.acc.Status(b.cards[pos])
		b.pending[key] = p
		b.cards[pos] = b.acc.WithStatus(b.cards[pos], p.To)
	}
}

func (b *Board[T, S]) load(cards []T) {
	b.cards = append([]T(nil), cards...)
	b.index = make(map[string]int, len(cards))
	for i, c := range b.cards {
		b.index[b.acc.Key(c)] = i
	}
}

// Snapshot returns a copy of the current board contents.
func (b *Board[T, S]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]T(nil), b.cards...)
}

func (b *Board[T, S]) Get(key string) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return b.cards[pos], true
}

// Pending returns the pending transition for key, if any.
func (b *Board[T, S]) Pending(key string) (Pending[S], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[key]
	return p, ok
}

// Move handles a drop of card key onto target. The new status is visible in Snapshot before the
// commit starts. A commit failure restores the card and returns an error wrapping
// ErrCommitFailed.
func (b *Board[T, S]) Move(ctx context.Context, key string, target DropTarget[S]) (Outcome, error) {
	b.mu.Lock()
	pos, ok := b.index[key]
	if !ok {
		b.mu.Unlock()
		return OutcomeNoop, fmt.Errorf("%w: %s", ErrUnknownCard, key)
	}
	to, err := b.resolveTarget(target)
	if err != nil {
		b.mu.Unlock()
		return OutcomeNoop, err
	}

	current := b.acc.Status(b.cards[pos])
	// The server still holds the status from before a superseded pending move.
	from := current
	if p, ok := b.pending[key]; ok {
		from = p.From
		delete(b.pending, key)
	}
	if to == current && from == current {
		b.mu.Unlock()
		return OutcomeNoop, nil
	}

	b.cards[pos] = b.acc.WithStatus(b.cards[pos], to)

	if b.gated[to] {
		b.pending[key] = Pending[S]{Key: key, From: from, To: to, CreatedAt: b.now()}
		b.mu.Unlock()
		b.emit(Event[S]{Key: key, From: from, To: to, Outcome: OutcomePending})
		return OutcomePending, nil
	}
	b.mu.Unlock()

	if to == from {
		b.emit(Event[S]{Key: key, From: from, To: to, Outcome: OutcomeCancelled})
		return OutcomeCancelled, nil
	}
	return b.commit(ctx, key, from, to)
}

// Confirm commits the pending transition for key.
func (b *Board[T, S]) Confirm(ctx context.Context, key string) (Outcome, error) {
	b.mu.Lock()
	p, ok := b.pending[key]
	if !ok {
		b.mu.Unlock()
		return OutcomeNoop, fmt.Errorf("%w: %s", ErrNoPending, key)
	}
	delete(b.pending, key)
	b.mu.Unlock()
	return b.commit(ctx, key, p.From, p.To)
}

// Cancel drops the pending transition for key and restores the card to its committed status.
func (b *Board[T, S]) Cancel(key string) error {
	b.mu.Lock()
	p, ok := b.pending[key]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoPending, key)
	}
	delete(b.pending, key)
	b.revert(key, p.From, p.To)
	b.mu.Unlock()
	b.emit(Event[S]{Key: key, From: p.From, To: p.To, Outcome: OutcomeCancelled})
	return nil
}

// ExpirePending cancels pending transitions older than the configured TTL and returns their keys.
// Without a TTL nothing expires.
func (b *Board[T, S]) ExpirePending() []string {
	if b.ttl <= 0 {
		return nil
	}
	cutoff := b.now().Add(-b.ttl)
	b.mu.Lock()
	var expired []string
	for key, p := range b.pending {
		if p.CreatedAt.Before(cutoff) {
			expired = append(expired, key)
		}
	}
	b.mu.Unlock()

	var cancelled []string
	for _, key := range expired {
		if err := b.Cancel(key); err == nil {
			cancelled = append(cancelled, key)
		}
	}
	return cancelled
}

func (b *Board[T, S]) commit(ctx context.Context, key string, from, to S) (Outcome, error) {
	if err := b.committer.Commit(ctx, key, to); err != nil {
		b.mu.Lock()
		b.revert(key, from, to)
		b.mu.Unlock()
		err = fmt.Errorf("%w: %v", ErrCommitFailed, err)
		b.emit(Event[S]{Key: key, From: from, To: to, Outcome: OutcomeRolledBack, Err: err})
		return OutcomeRolledBack, err
	}
	b.emit(Event[S]{Key: key, From: from, To: to, Outcome: OutcomeCommitted})
	return OutcomeCommitted, nil
}

// revert restores from, unless the card was moved again while the commit was in flight.
// Callers hold b.mu.
func (b *Board[T, S]) revert(key string, from, to S) {
	pos, ok := b.index[key]
	if !ok {
		return
	}
	if b.acc.Status(b.cards[pos]) != to {
		return
	}
	b.cards[pos] = b.acc.WithStatus(b.cards[pos], from)
}

// resolveTarget reads the status of the drop column, or inherits it from the card dropped on.
// Callers hold b.mu.
func (b *Board[T, S]) resolveTarget(target DropTarget[S]) (S, error) {
	if target.Column != nil {
		return *target.Column, nil
	}
	if target.OverKey != "" {
		if pos, ok := b.index[target.OverKey]; ok {
			return b.acc.Status(b.cards[pos]), nil
		}
	}
	var zero S
	return zero, ErrNoTarget
}

func (b *Board[T, S]) emit(ev Event[S]) {
	if b.notify != nil {
		b.notify(ev)
	}
}
