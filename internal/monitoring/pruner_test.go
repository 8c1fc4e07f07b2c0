package monitoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/avikl/user-admin-be/internal/database"
	"github.com/avikl/user-admin-be/internal/monitoring"
	"github.com/avikl/user-admin-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrunerRejectsBadSpec(t *testing.T) {
	_, err := monitoring.NewPruner(nil, "not a cron spec", 30)
	assert.Error(t, err)
}

func TestPruneOnce(t *testing.T) {
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	eventSvc := services.NewEventService(db, nil)
	ctx := context.Background()
	require.NoError(t, eventSvc.CreateEvent(ctx, "auth.signup", "info", "User 'alice' signed up.", nil))

	// Zero retention: everything already recorded is past the window.
	pruner, err := monitoring.NewPruner(eventSvc, "0 3 * * *", 0)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	pruner.PruneOnce()

	events, err := eventSvc.GetRecentEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
