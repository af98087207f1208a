package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dealflow/internal/model"
)

type recordingCommitter struct {
	mu    sync.Mutex
	calls []model.InvestorStatus
	err   error
	// onCommit runs before the commit returns; used to observe the board mid-flight.
	onCommit func()
}

func (c *recordingCommitter) Commit(_ context.Context, _ string, to model.InvestorStatus) error {
	if c.onCommit != nil {
		c.onCommit()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, to)
	return c.err
}

func (c *recordingCommitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func newInvestor(status model.InvestorStatus) model.DealInvestor {
	return model.DealInvestor{
		ID:             uuid.New(),
		DealID:         uuid.New(),
		OrganizationID: uuid.New(),
		Status:         status,
	}
}

func statusOf(t *testing.T, b *InvestorBoard, key string) model.InvestorStatus {
	t.Helper()
	card, ok := b.Get(key)
	require.True(t, ok)
	return card.Status
}

func TestMove_CommitsImmediately(t *testing.T) {
	inv := newInvestor(model.InvestorStatusLonglist)
	key := inv.OrganizationID.String()
	var seenDuringCommit model.InvestorStatus
	committer := &recordingCommitter{}
	b := NewInvestorBoard([]model.DealInvestor{inv}, committer, 0)
	committer.onCommit = func() { seenDuringCommit = statusOf(t, b, key) }

	outcome, err := b.Move(context.Background(), key, Column(model.InvestorStatusShortlist))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)
	assert.Equal(t, model.InvestorStatusShortlist, seenDuringCommit, "optimistic state must be visible before commit resolves")
	assert.Equal(t, model.InvestorStatusShortlist, statusOf(t, b, key))
	assert.Equal(t, []model.InvestorStatus{model.InvestorStatusShortlist}, committer.calls)
}

func TestMove_RollsBackOnFailure(t *testing.T) {
	inv := newInvestor(model.InvestorStatusLonglist)
	key := inv.OrganizationID.String()
	committer := &recordingCommitter{err: errors.New("store unreachable")}
	var events []Event[model.InvestorStatus]
	b := NewInvestorBoard([]model.DealInvestor{inv}, committer, 0,
		WithNotifier[model.DealInvestor](func(ev Event[model.InvestorStatus]) { events = append(events, ev) }))

	outcome, err := b.Move(context.Background(), key, Column(model.InvestorStatusShortlist))
	require.ErrorIs(t, err, ErrCommitFailed)
	assert.Equal(t, OutcomeRolledBack, outcome)
	assert.Equal(t, model.InvestorStatusLonglist, statusOf(t, b, key))
	require.Len(t, events, 1)
	assert.Equal(t, OutcomeRolledBack, events[0].Outcome)
}

func TestMove_SameStatusIsNoop(t *testing.T) {
	inv := newInvestor(model.InvestorStatusShortlist)
	committer := &recordingCommitter{}
	b := NewInvestorBoard([]model.DealInvestor{inv}, committer, 0)

	outcome, err := b.Move(context.Background(), inv.OrganizationID.String(), Column(model.InvestorStatusShortlist))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
	assert.Zero(t, committer.count())
}

func TestMove_InheritsStatusFromCard(t *testing.T) {
	a := newInvestor(model.InvestorStatusLonglist)
	other := newInvestor(model.InvestorStatusNDASent)
	committer := &recordingCommitter{}
	b := NewInvestorBoard([]model.DealInvestor{a, other}, committer, 0)

	_, err := b.Move(context.Background(), a.OrganizationID.String(), OverCard[model.InvestorStatus](other.OrganizationID.String()))
	require.NoError(t, err)
	assert.Equal(t, model.InvestorStatusNDASent, statusOf(t, b, a.OrganizationID.String()))
}

func TestMove_UnknownTarget(t *testing.T) {
	inv := newInvestor(model.InvestorStatusLonglist)
	b := NewInvestorBoard([]model.DealInvestor{inv}, &recordingCommitter{}, 0)

	_, err := b.Move(context.Background(), inv.OrganizationID.String(), OverCard[model.InvestorStatus]("missing"))
	assert.ErrorIs(t, err, ErrNoTarget)

	_, err = b.Move(context.Background(), "missing", Column(model.InvestorStatusShortlist))
	assert.ErrorIs(t, err, ErrUnknownCard)
}

func TestContacted_DefersCommitUntilConfirm(t *testing.T) {
	inv := newInvestor(model.InvestorStatusLonglist)
	key := inv.OrganizationID.String()
	committer := &recordingCommitter{}
	b := NewInvestorBoard([]model.DealInvestor{inv}, committer, 0)

	outcome, err := b.Move(context.Background(), key, Column(model.InvestorStatusContacted))
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, outcome)
	assert.Equal(t, model.InvestorStatusContacted, statusOf(t, b, key))
	assert.Zero(t, committer.count())

	p, ok := b.Pending(key)
	require.True(t, ok)
	assert.Equal(t, model.InvestorStatusLonglist, p.From)

	outcome, err = b.Confirm(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)
	assert.Equal(t, []model.InvestorStatus{model.InvestorStatusContacted}, committer.calls)
	_, ok = b.Pending(key)
	assert.False(t, ok)
}

func TestContacted_CancelRevertsWithoutCommit(t *testing.T) {
	inv := newInvestor(model.InvestorStatusLonglist)
	key := inv.OrganizationID.String()
	committer := &recordingCommitter{}
	b := NewInvestorBoard([]model.DealInvestor{inv}, committer, 0)

	_, err := b.Move(context.Background(), key, Column(model.InvestorStatusContacted))
	require.NoError(t, err)
	require.NoError(t, b.Cancel(key))

	assert.Equal(t, model.InvestorStatusLonglist, statusOf(t, b, key))
	assert.Zero(t, committer.count())
	assert.ErrorIs(t, b.Cancel(key), ErrNoPending)
}

func TestContacted_ConfirmFailureRollsBack(t *testing.T) {
	inv := newInvestor(model.InvestorStatusShortlist)
	key := inv.OrganizationID.String()
	committer := &recordingCommitter{err: errors.New("boom")}
	b := NewInvestorBoard([]model.DealInvestor{inv}, committer, 0)

	_, err := b.Move(context.Background(), key, Column(model.InvestorStatusContacted))
	require.NoError(t, err)
	outcome, err := b.Confirm(context.Background(), key)
	require.Error(t, err)
	assert.Equal(t, OutcomeRolledBack, outcome)
	assert.Equal(t, model.InvestorStatusShortlist, statusOf(t, b, key))
}

func TestContacted_SupersededByAnotherMove(t *testing.T) {
	inv := newInvestor(model.InvestorStatusLonglist)
	key := inv.OrganizationID.String()
	committer := &recordingCommitter{}
	b := NewInvestorBoard([]model.DealInvestor{inv}, committer, 0)

	_, err := b.Move(context.Background(), key, Column(model.InvestorStatusContacted))
	require.NoError(t, err)

	outcome, err := b.Move(context.Background(), key, Column(model.InvestorStatusLonglist))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Zero(t, committer.count())
	assert.Equal(t, model.InvestorStatusLonglist, statusOf(t, b, key))

	_, err = b.Move(context.Background(), key, Column(model.InvestorStatusContacted))
	require.NoError(t, err)
	outcome, err = b.Move(context.Background(), key, Column(model.InvestorStatusShortlist))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)
	assert.Equal(t, []model.InvestorStatus{model.InvestorStatusShortlist}, committer.calls)
}

func TestExpirePending(t *testing.T) {
	inv := newInvestor(model.InvestorStatusLonglist)
	key := inv.OrganizationID.String()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b := NewInvestorBoard([]model.DealInvestor{inv}, &recordingCommitter{}, 10*time.Minute,
		WithClock[model.DealInvestor, model.InvestorStatus](clock))

	_, err := b.Move(context.Background(), key, Column(model.InvestorStatusContacted))
	require.NoError(t, err)

	assert.Empty(t, b.ExpirePending())

	now = now.Add(11 * time.Minute)
	assert.Equal(t, []string{key}, b.ExpirePending())
	assert.Equal(t, model.InvestorStatusLonglist, statusOf(t, b, key))
}

func TestReplace_KeepsPending(t *testing.T) {
	inv := newInvestor(model.InvestorStatusLonglist)
	key := inv.OrganizationID.String()
	b := NewInvestorBoard([]model.DealInvestor{inv}, &recordingCommitter{}, 0)

	_, err := b.Move(context.Background(), key, Column(model.InvestorStatusContacted))
	require.NoError(t, err)

	fresh := inv
	fresh.Status = model.InvestorStatusShortlist
	b.Replace([]model.DealInvestor{fresh})

	assert.Equal(t, model.InvestorStatusContacted, statusOf(t, b, key))
	p, ok := b.Pending(key)
	require.True(t, ok)
	assert.Equal(t, model.InvestorStatusShortlist, p.From)
}

func TestDealBoard_NoGate(t *testing.T) {
	deal := model.Deal{ID: uuid.New(), Stage: model.DealStagePitch}
	var committed []model.DealStage
	b := NewDealBoard([]model.Deal{deal}, CommitFunc[model.DealStage](func(_ context.Context, _ string, to model.DealStage) error {
		committed = append(committed, to)
		return nil
	}))

	outcome, err := b.Move(context.Background(), deal.ID.String(), Column(model.DealStageMandate))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)
	assert.Equal(t, []model.DealStage{model.DealStageMandate}, committed)
	assert.Equal(t, model.DealStageMandate, b.Snapshot()[0].Stage)
}
