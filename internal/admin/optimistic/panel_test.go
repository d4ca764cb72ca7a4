package optimistic_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/recruit-admin/internal/admin/optimistic"
)

type gatedPersister[T any] struct {
	mu      sync.Mutex
	release chan error
	calls   [][]T
}

func newGatedPersister[T any]() *gatedPersister[T] {
	return &gatedPersister[T]{release: make(chan error, 1)}
}

func (g *gatedPersister[T]) Persist(_ context.Context, values []T) error {
	g.mu.Lock()
	g.calls = append(g.calls, append([]T(nil), values...))
	g.mu.Unlock()
	return <-g.release
}

func (g *gatedPersister[T]) Calls() [][]T {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([][]T(nil), g.calls...)
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []optimistic.Notice
}

func (r *noticeRecorder) Notify(_ context.Context, n optimistic.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) All() []optimistic.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]optimistic.Notice(nil), r.notices...)
}

type backendError struct {
	msg string
}

func (e *backendError) Error() string       { return "backend: " + e.msg }
func (e *backendError) UserMessage() string { return e.msg }

func wait(t *testing.T, pending *optimistic.Pending) optimistic.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	outcome, err := pending.Wait(ctx)
	require.NoError(t, err)
	return outcome
}

func TestCancelRestoresPreEditState(t *testing.T) {
	t.Parallel()

	persister := newGatedPersister[string]()
	panel := optimistic.NewPanel([]string{"Go", "SQL"}, optimistic.Options[string]{
		Attribute: "skills",
		Persist:   persister.Persist,
	})

	require.NoError(t, panel.Begin())
	require.Equal(t, optimistic.StateEditing, panel.State())
	require.NoError(t, panel.Edit(func(l *optimistic.List[string]) {
		l.AppendEmpty()
		l.RemoveAt(0)
	}))
	panel.Cancel()

	require.Equal(t, optimistic.StateViewing, panel.State())
	require.Equal(t, []string{"Go", "SQL"}, panel.Displayed())
	require.Equal(t, []string{"Go", "SQL"}, panel.DraftValues())
	require.Nil(t, panel.Draft())
	require.Empty(t, persister.Calls())
}

func TestCommitIsOptimisticAndReconcilesOnSuccess(t *testing.T) {
	t.Parallel()

	persister := newGatedPersister[string]()
	notices := &noticeRecorder{}
	var refetches atomic.Int32
	panel := optimistic.NewPanel([]string{"Go"}, optimistic.Options[string]{
		Attribute: "skills",
		Persist:   persister.Persist,
		Notifier:  notices,
		Refetch:   func(context.Context) { refetches.Add(1) },
	})

	require.NoError(t, panel.Begin())
	require.NoError(t, panel.Edit(func(l *optimistic.List[string]) {
		key := l.AppendEmpty()
		l.Update(key, "Rust")
		l.RemoveAt(0)
	}))

	pending, err := panel.Commit(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"Rust"}, panel.Displayed(), "displayed value must update before persistence resolves")
	require.Equal(t, optimistic.StateCommitting, panel.State())
	require.Equal(t, uint64(1), pending.Generation())

	persister.release <- nil
	outcome := wait(t, pending)

	require.True(t, outcome.Succeeded())
	require.Equal(t, []string{"Rust"}, panel.Displayed())
	require.Equal(t, optimistic.StateViewing, panel.State())
	require.Equal(t, int32(1), refetches.Load())
	require.Equal(t, [][]string{{"Rust"}}, persister.Calls())

	got := notices.All()
	require.Len(t, got, 1)
	require.Equal(t, optimistic.LevelSuccess, got[0].Level)
	require.Equal(t, "skills", got[0].Attribute)
}

func TestCommitRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	persister := newGatedPersister[string]()
	notices := &noticeRecorder{}
	var refetches atomic.Int32
	panel := optimistic.NewPanel([]string{"Go"}, optimistic.Options[string]{
		Attribute: "skills",
		Persist:   persister.Persist,
		Notifier:  notices,
		Refetch:   func(context.Context) { refetches.Add(1) },
	})

	require.NoError(t, panel.Begin())
	require.NoError(t, panel.Edit(func(l *optimistic.List[string]) {
		key := l.AppendEmpty()
		l.Update(key, "Rust")
		l.RemoveAt(0)
	}))
	pending, err := panel.Commit(context.Background())
	require.NoError(t, err)

	persister.release <- &backendError{msg: "候補者がロックされています。"}
	outcome := wait(t, pending)

	require.Error(t, outcome.Err)
	require.False(t, outcome.Superseded)
	require.Equal(t, []string{"Go"}, panel.Displayed())
	require.Equal(t, optimistic.StateViewing, panel.State())
	require.Zero(t, refetches.Load())

	got := notices.All()
	require.Len(t, got, 1)
	require.Equal(t, optimistic.LevelError, got[0].Level)
	require.Equal(t, "候補者がロックされています。", got[0].Message)
}

func TestCommitFailureWithoutServerMessageUsesGenericText(t *testing.T) {
	t.Parallel()

	notices := &noticeRecorder{}
	panel := optimistic.NewPanel([]string{"Go"}, optimistic.Options[string]{
		Persist:  func(context.Context, []string) error { return errors.New("dial tcp: connection refused") },
		Notifier: notices,
	})

	require.NoError(t, panel.Begin())
	pending, err := panel.Commit(context.Background())
	require.NoError(t, err)
	wait(t, pending)

	got := notices.All()
	require.Len(t, got, 1)
	require.Equal(t, optimistic.FailureMessage(nil), got[0].Message)
}

func TestInvalidDraftNeverReachesPersister(t *testing.T) {
	t.Parallel()

	persister := newGatedPersister[string]()
	notices := &noticeRecorder{}
	errEmpty := errors.New("empty skill")
	panel := optimistic.NewPanel([]string{"Go"}, optimistic.Options[string]{
		Persist:  persister.Persist,
		Notifier: notices,
		Validate: func(values []string) error {
			for _, v := range values {
				if v == "" {
					return errEmpty
				}
			}
			return nil
		},
	})

	require.NoError(t, panel.Begin())
	require.NoError(t, panel.Edit(func(l *optimistic.List[string]) { l.AppendEmpty() }))

	pending, err := panel.Commit(context.Background())
	require.Nil(t, pending)
	require.ErrorIs(t, err, optimistic.ErrInvalidDraft)
	require.ErrorIs(t, err, errEmpty)

	require.Equal(t, optimistic.StateEditing, panel.State())
	require.Equal(t, []string{"Go"}, panel.Displayed())
	require.Equal(t, []string{"Go", ""}, panel.DraftValues())
	require.Empty(t, persister.Calls())
	require.Len(t, notices.All(), 1)
}

func TestCommittingStateRejectsOverlappingEdits(t *testing.T) {
	t.Parallel()

	persister := newGatedPersister[string]()
	panel := optimistic.NewPanel([]string{"Go"}, optimistic.Options[string]{Persist: persister.Persist})

	_, err := panel.Commit(context.Background())
	require.ErrorIs(t, err, optimistic.ErrNotEditing)

	require.NoError(t, panel.Begin())
	pending, err := panel.Commit(context.Background())
	require.NoError(t, err)

	require.ErrorIs(t, panel.Begin(), optimistic.ErrCommitInFlight)
	_, err = panel.Commit(context.Background())
	require.ErrorIs(t, err, optimistic.ErrCommitInFlight)
	require.ErrorIs(t, panel.Edit(func(*optimistic.List[string]) {}), optimistic.ErrNotEditing)

	persister.release <- nil
	wait(t, pending)
	require.Len(t, persister.Calls(), 1)
	require.NoError(t, panel.Begin())
}

func TestDisposeDiscardsLateResolution(t *testing.T) {
	t.Parallel()

	persister := newGatedPersister[string]()
	notices := &noticeRecorder{}
	var refetches atomic.Int32
	panel := optimistic.NewPanel([]string{"Go"}, optimistic.Options[string]{
		Persist:  persister.Persist,
		Notifier: notices,
		Refetch:  func(context.Context) { refetches.Add(1) },
	})

	require.NoError(t, panel.Begin())
	require.NoError(t, panel.Edit(func(l *optimistic.List[string]) { l.Set([]string{"Rust"}) }))
	pending, err := panel.Commit(context.Background())
	require.NoError(t, err)

	panel.Dispose()
	persister.release <- errors.New("boom")
	outcome := wait(t, pending)

	require.True(t, outcome.Superseded)
	require.False(t, outcome.Succeeded())
	require.Empty(t, notices.All())
	require.Zero(t, refetches.Load())
	require.ErrorIs(t, panel.Begin(), optimistic.ErrDisposed)
}

func TestResetDuringCommitReplacesRollbackTarget(t *testing.T) {
	t.Parallel()

	persister := newGatedPersister[string]()
	panel := optimistic.NewPanel([]string{"Go"}, optimistic.Options[string]{Persist: persister.Persist})

	require.NoError(t, panel.Begin())
	require.NoError(t, panel.Edit(func(l *optimistic.List[string]) { l.Set([]string{"Rust"}) }))
	pending, err := panel.Commit(context.Background())
	require.NoError(t, err)

	panel.Reset([]string{"Go", "Kotlin"})
	require.Equal(t, []string{"Rust"}, panel.Displayed())

	persister.release <- errors.New("boom")
	wait(t, pending)
	require.Equal(t, []string{"Go", "Kotlin"}, panel.Displayed())
}

func TestResetWhileViewingReplacesDisplayed(t *testing.T) {
	t.Parallel()

	panel := optimistic.NewPanel([]string{"Go"}, optimistic.Options[string]{
		Persist: func(context.Context, []string) error { return nil },
	})
	panel.Reset([]string{"Go", "Rust"})
	require.Equal(t, []string{"Go", "Rust"}, panel.Displayed())
}

func TestCommitDetachesFromRequestCancellation(t *testing.T) {
	t.Parallel()

	var seen atomic.Value
	panel := optimistic.NewPanel([]string{"Go"}, optimistic.Options[string]{
		Persist: func(ctx context.Context, _ []string) error {
			seen.Store(ctx.Err() == nil)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, panel.Begin())
	pending, err := panel.Commit(ctx)
	require.NoError(t, err)
	cancel()

	outcome := wait(t, pending)
	require.True(t, outcome.Succeeded())
	require.Equal(t, true, seen.Load())
}

func TestPanickingPersisterRollsBack(t *testing.T) {
	t.Parallel()

	panel := optimistic.NewPanel([]string{"Go"}, optimistic.Options[string]{
		Persist: func(context.Context, []string) error { panic("nil map") },
	})
	require.NoError(t, panel.Begin())
	require.NoError(t, panel.Edit(func(l *optimistic.List[string]) { l.Set(nil) }))
	pending, err := panel.Commit(context.Background())
	require.NoError(t, err)

	outcome := wait(t, pending)
	require.Error(t, outcome.Err)
	require.Equal(t, []string{"Go"}, panel.Displayed())
}

type assignment struct {
	JobID  int64
	Status string
}

func TestCommitItemRollsBackSingleElement(t *testing.T) {
	t.Parallel()

	release := make(chan error, 1)
	panel := optimistic.NewPanel([]assignment{
		{JobID: 1, Status: "Applied"},
		{JobID: 2, Status: "Screening"},
	}, optimistic.Options[assignment]{
		Persist: func(context.Context, []assignment) error { return nil },
	})

	pending, err := panel.CommitItem(context.Background(), "job:2",
		func(a assignment) bool { return a.JobID == 2 },
		func(a assignment) assignment { a.Status = "Interview"; return a },
		func(context.Context) error { return <-release },
	)
	require.NoError(t, err)
	require.Equal(t, "Interview", panel.Displayed()[1].Status)
	require.True(t, panel.InFlight())
	require.Equal(t, optimistic.StateViewing, panel.State())

	release <- errors.New("boom")
	outcome := wait(t, pending)
	require.Error(t, outcome.Err)
	require.False(t, panel.InFlight())
	require.Equal(t, []assignment{{JobID: 1, Status: "Applied"}, {JobID: 2, Status: "Screening"}}, panel.Displayed())
}

func TestCommitItemSupersededByNewerChange(t *testing.T) {
	t.Parallel()

	first := make(chan error, 1)
	second := make(chan error, 1)
	notices := &noticeRecorder{}
	panel := optimistic.NewPanel([]assignment{{JobID: 7, Status: "Applied"}}, optimistic.Options[assignment]{
		Persist:  func(context.Context, []assignment) error { return nil },
		Notifier: notices,
	})
	match := func(a assignment) bool { return a.JobID == 7 }
	to := func(status string) func(assignment) assignment {
		return func(a assignment) assignment { a.Status = status; return a }
	}

	p1, err := panel.CommitItem(context.Background(), "job:7", match, to("Screening"), func(context.Context) error { return <-first })
	require.NoError(t, err)
	p2, err := panel.CommitItem(context.Background(), "job:7", match, to("Interview"), func(context.Context) error { return <-second })
	require.NoError(t, err)

	first <- errors.New("late failure")
	require.True(t, wait(t, p1).Superseded)
	require.Equal(t, "Interview", panel.Displayed()[0].Status)

	second <- nil
	require.True(t, wait(t, p2).Succeeded())
	require.Equal(t, "Interview", panel.Displayed()[0].Status)
	require.Len(t, notices.All(), 1)
}

func TestCommitItemRequiresViewingAndMatch(t *testing.T) {
	t.Parallel()

	panel := optimistic.NewPanel([]assignment{{JobID: 1}}, optimistic.Options[assignment]{
		Persist: func(context.Context, []assignment) error { return nil },
	})
	noop := func(context.Context) error { return nil }
	same := func(a assignment) assignment { return a }

	_, err := panel.CommitItem(context.Background(), "job:9", func(a assignment) bool { return a.JobID == 9 }, same, noop)
	require.ErrorIs(t, err, optimistic.ErrItemNotFound)

	require.NoError(t, panel.Begin())
	_, err = panel.CommitItem(context.Background(), "job:1", func(a assignment) bool { return a.JobID == 1 }, same, noop)
	require.ErrorIs(t, err, optimistic.ErrNotViewing)
}

func TestUnresolvedItemCommitBlocksEditMode(t *testing.T) {
	t.Parallel()

	release := make(chan error, 1)
	persister := newGatedPersister[assignment]()
	panel := optimistic.NewPanel([]assignment{
		{JobID: 1, Status: "Screening"},
		{JobID: 2, Status: "Applied"},
	}, optimistic.Options[assignment]{Persist: persister.Persist})

	pending, err := panel.CommitItem(context.Background(), "job:1",
		func(a assignment) bool { return a.JobID == 1 },
		func(a assignment) assignment { a.Status = "Interview"; return a },
		func(context.Context) error { return <-release },
	)
	require.NoError(t, err)

	require.ErrorIs(t, panel.Begin(), optimistic.ErrCommitInFlight)
	require.Equal(t, optimistic.StateViewing, panel.State())
	_, err = panel.Commit(context.Background())
	require.ErrorIs(t, err, optimistic.ErrCommitInFlight)

	release <- errors.New("boom")
	wait(t, pending)
	require.Equal(t, []assignment{{JobID: 1, Status: "Screening"}, {JobID: 2, Status: "Applied"}}, panel.Displayed())
	require.Empty(t, persister.Calls())

	require.NoError(t, panel.Begin())
	require.NoError(t, panel.Edit(func(l *optimistic.List[assignment]) {
		l.Set([]assignment{{JobID: 1, Status: "Screening"}, {JobID: 2, Status: "Offer"}})
	}))
	listPending, err := panel.Commit(context.Background())
	require.NoError(t, err)
	persister.release <- errors.New("boom")
	wait(t, listPending)
	require.Equal(t, []assignment{{JobID: 1, Status: "Screening"}, {JobID: 2, Status: "Applied"}}, panel.Displayed())
}

func TestResetKeepsUnresolvedItemCommit(t *testing.T) {
	t.Parallel()

	release := make(chan error, 1)
	panel := optimistic.NewPanel([]assignment{{JobID: 1, Status: "Screening"}}, optimistic.Options[assignment]{
		Persist: func(context.Context, []assignment) error { return nil },
	})

	pending, err := panel.CommitItem(context.Background(), "job:1",
		func(a assignment) bool { return a.JobID == 1 },
		func(a assignment) assignment { a.Status = "Interview"; return a },
		func(context.Context) error { return <-release },
	)
	require.NoError(t, err)

	panel.Reset([]assignment{{JobID: 1, Status: "Screening"}, {JobID: 3, Status: "Applied"}})
	require.Equal(t, []assignment{{JobID: 1, Status: "Interview"}, {JobID: 3, Status: "Applied"}}, panel.Displayed())

	release <- errors.New("boom")
	wait(t, pending)
	require.Equal(t, []assignment{{JobID: 1, Status: "Screening"}, {JobID: 3, Status: "Applied"}}, panel.Displayed())

	panel.Reset([]assignment{{JobID: 1, Status: "Offer"}})
	require.Equal(t, []assignment{{JobID: 1, Status: "Offer"}}, panel.Displayed())
}
