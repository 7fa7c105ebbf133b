package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/scanlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, "Launch")
	other := f.createEvent(t, "Other")
	a := f.register(t, e.ID, "John Doe")

	rec, err := f.svc.ScanCheckIn(ctx, e.ID, fmt.Sprintf(`{"attendeeId":%q,"eventId":%q}`, a.ID, e.ID))
	require.NoError(t, err)
	assert.Equal(t, model.ScanSuccess, rec.Status)
	assert.Equal(t, "John Doe checked in successfully!", rec.Message)
	assert.Equal(t, a.ID, rec.AttendeeID)

	rec, err = f.svc.ScanCheckIn(ctx, e.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScanDuplicate, rec.Status)
	assert.Equal(t, "John Doe is already checked in!", rec.Message)

	rec, err = f.svc.ScanCheckIn(ctx, other.ID, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, model.ScanError, rec.Status)
	assert.Equal(t, "Attendee not found!", rec.Message)

	rec, err = f.svc.ScanCheckIn(ctx, other.ID, fmt.Sprintf(`{"attendeeId":%q,"eventId":%q}`, a.ID, e.ID))
	assert.ErrorIs(t, err, ErrWrongEvent)
	assert.Equal(t, "This code is for a different event.", rec.Message)

	rec, err = f.svc.ScanCheckIn(ctx, e.ID, "")
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, model.ScanError, rec.Status)

	got, err := f.svc.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CheckedInCount)

	history, err := f.svc.RecentScans(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, model.ScanError, history[0].Status)
	assert.Equal(t, model.ScanDuplicate, history[1].Status)
	assert.Equal(t, model.ScanSuccess, history[2].Status)

	require.NoError(t, f.svc.ClearScans(ctx, e.ID))
	history, err = f.svc.RecentScans(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestScanHistoryIsBounded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, "Launch")

	for i := 0; i < scanlog.Limit+5; i++ {
		_, err := f.svc.ScanCheckIn(ctx, e.ID, fmt.Sprintf("missing-%d", i))
		require.ErrorIs(t, err, repository.ErrNotFound)
	}
	history, err := f.svc.RecentScans(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, history, scanlog.Limit)
	assert.Equal(t, fmt.Sprintf("missing-%d", scanlog.Limit+4), history[0].AttendeeID)
}

func TestDeleteEventClearsScans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, "Launch")
	a := f.register(t, e.ID, "Ann")
	_, err := f.svc.ScanCheckIn(ctx, e.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteEvent(ctx, e.ID))
	history, err := f.svc.RecentScans(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestScanForUnknownEventKeepsNoHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.ScanCheckIn(ctx, "no-such-event", "someone")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, rec)

	history, err := f.svc.RecentScans(ctx, "no-such-event")
	require.NoError(t, err)
	assert.Empty(t, history)
}
