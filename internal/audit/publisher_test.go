package audit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "curia/pkg/domain"
)

func TestWorkerPersistsEmittedEvents(t *testing.T) {
	store := NewInMemory()
	pub := NewPublisher(8)
	worker := NewWorker(store, pub.Inbox(), nil)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go worker.Run(ctx)

	event := Event{
		Action:     ActionStaffApproved,
		TargetType: TargetStaffAccount,
		TargetID:   "staff-1",
	}
	require.NoError(t, pub.Emit(ctx, event))

	require.Eventually(t, func() bool {
		return len(store.Events()) == 1
	}, time.Second, 5*time.Millisecond)

	stored := store.Events()[0]
	assert.Equal(t, ActionStaffApproved, stored.Action)
	assert.Equal(t, "staff-1", stored.TargetID)
	assert.False(t, stored.Timestamp.IsZero(), "emit stamps a timestamp when the caller omits one")
}

func TestEmitDropsWhenInboxFull(t *testing.T) {
	var drops atomic.Int64
	pub := NewPublisher(1, WithDropHook(func() { drops.Add(1) }))

	// No worker draining: the second and third events have nowhere to go.
	for i := 0; i < 3; i++ {
		require.NoError(t, pub.Emit(t.Context(), Event{Action: ActionStaffLogin, TargetID: "staff-1"}))
	}

	assert.Equal(t, int64(2), pub.Dropped())
	assert.Equal(t, int64(2), drops.Load())
}

func TestTermStatsCountsOnlyActorWithinWindow(t *testing.T) {
	store := NewInMemory()
	ctx := t.Context()

	base := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	actor := id.NewStaffID()
	other := id.NewStaffID()

	for _, event := range []Event{
		{ActorID: actor, Action: ActionStaffApproved, TargetID: "a", Timestamp: base},
		{ActorID: actor, Action: ActionStaffRejected, TargetID: "b", Timestamp: base.Add(time.Minute)},
		{ActorID: actor, Action: ActionStaffLogin, TargetID: "c", Timestamp: base.Add(48 * time.Hour)},
		{ActorID: other, Action: ActionStaffApproved, TargetID: "d", Timestamp: base},
	} {
		require.NoError(t, store.Append(ctx, event))
	}

	stats, err := store.TermStats(ctx, actor, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalActions)
	assert.Equal(t, int64(1), stats.ByKind[string(ActionStaffApproved)])
	assert.Equal(t, int64(1), stats.ByKind[string(ActionStaffRejected)])

	// Narrowing the window to before the events excludes them all.
	early, err := store.TermStats(ctx, actor, base.Add(-3*time.Hour), base.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, early.TotalActions)
}
