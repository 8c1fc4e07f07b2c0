package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/avikl/user-admin-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	actions []string
}

func (n *captureNotifier) BroadcastJSON(action string, payload interface{}) {
	n.actions = append(n.actions, action)
}

func TestEventLifecycle(t *testing.T) {
	db := setupDB(t)
	notifier := &captureNotifier{}
	svc := services.NewEventService(db, notifier)
	ctx := context.Background()

	actor := "admin-1"
	require.NoError(t, svc.CreateEvent(ctx, "user.create", "info", "User 'alice' created by admin.", &actor))
	require.NoError(t, svc.CreateEvent(ctx, "user.delete", "warn", "User alice deleted by admin.", &actor))
	require.NoError(t, svc.CreateEvent(ctx, "auth.signup", "info", "User 'bob' signed up.", nil))

	events, err := svc.GetRecentEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, "auth.signup", events[0].Type)
	assert.Nil(t, events[0].ActorID)
	assert.Equal(t, "user.delete", events[1].Type)
	require.NotNil(t, events[1].ActorID)
	assert.Equal(t, "admin-1", *events[1].ActorID)

	// Every recorded event was pushed to the feed.
	assert.Equal(t, []string{"event.created", "event.created", "event.created"}, notifier.actions)
}

func TestPruneOlderThan(t *testing.T) {
	db := setupDB(t)
	svc := services.NewEventService(db, nil)
	ctx := context.Background()

	require.NoError(t, svc.CreateEvent(ctx, "auth.signup", "info", "User 'alice' signed up.", nil))
	require.NoError(t, svc.CreateEvent(ctx, "auth.signup", "info", "User 'bob' signed up.", nil))

	// Nothing is older than a cutoff in the past.
	removed, err := svc.PruneOlderThan(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	// Everything is older than a cutoff in the future.
	removed, err = svc.PruneOlderThan(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	events, err := svc.GetRecentEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
