package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventRequiresCreator(t *testing.T) {
	_, err := NewEvent(CreateEventRequest{Title: "Launch"}, "  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "creatorUid", verr.Field)
}

func TestNewEventDefaults(t *testing.T) {
	date := time.Date(2026, 3, 1, 18, 0, 0, 0, time.FixedZone("CET", 3600))
	e, err := NewEvent(CreateEventRequest{Title: "  Launch ", Date: date, MaxAttendees: 50}, "uid-1")
	require.NoError(t, err)

	assert.Equal(t, "Launch", e.Title)
	assert.Equal(t, StatusDraft, e.Status)
	assert.Equal(t, "uid-1", e.CreatorUID)
	assert.Equal(t, 0, e.TotalAttendees)
	assert.Equal(t, 0, e.CheckedInCount)
	assert.Equal(t, time.UTC, e.Date.Location())
	assert.True(t, e.Date.Equal(date))
}

func TestNewEventRejectsUnknownStatus(t *testing.T) {
	_, err := NewEvent(CreateEventRequest{Status: "archived"}, "uid-1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewEvent(CreateEventRequest{MaxAttendees: -1}, "uid-1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewAttendee(t *testing.T) {
	_, err := NewAttendee(CreateAttendeeRequest{Name: "John"})
	assert.ErrorIs(t, err, ErrValidation)

	a, err := NewAttendee(CreateAttendeeRequest{EventID: "ev-1", Name: "John", Email: " John@Example.COM "})
	require.NoError(t, err)
	assert.Equal(t, CategoryGeneral, a.Category)
	assert.Equal(t, "john@example.com", a.Email)
	assert.False(t, a.CheckedIn)
	assert.Nil(t, a.CheckedInAt)

	_, err = NewAttendee(CreateAttendeeRequest{EventID: "ev-1", Category: "guest"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEventPatch(t *testing.T) {
	bad := EventStatus("gone")
	assert.ErrorIs(t, EventPatch{Status: &bad}.Validate(), ErrValidation)

	title := "New title"
	status := StatusActive
	e := Event{Title: "Old", Status: StatusDraft, TotalAttendees: 4}
	EventPatch{Title: &title, Status: &status}.Apply(&e)
	assert.Equal(t, "New title", e.Title)
	assert.Equal(t, StatusActive, e.Status)
	assert.Equal(t, 4, e.TotalAttendees)
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 66.67, Rate(2, 3))
	assert.Equal(t, 100.0, Rate(5, 5))

	e := Event{TotalAttendees: 8, CheckedInCount: 1}
	assert.Equal(t, 12.5, e.AttendanceRate())
}

func TestIsFull(t *testing.T) {
	assert.False(t, (&Event{MaxAttendees: 0, TotalAttendees: 100}).IsFull())
	assert.True(t, (&Event{MaxAttendees: 2, TotalAttendees: 2}).IsFull())
}

func TestSuccessMessage(t *testing.T) {
	assert.Equal(t, "Event created successfully!", SuccessMessage("event", "created"))
	assert.Equal(t, "Attendee registered successfully!", SuccessMessage("attendee", "registered"))
}

func TestNewProfileDefaults(t *testing.T) {
	p, err := NewProfile(Identity{UID: "u1", Email: "a@b.co"})
	require.NoError(t, err)
	assert.Equal(t, DefaultDisplayName, p.DisplayName)
	assert.Equal(t, DefaultRole, p.Role)

	_, err = NewProfile(Identity{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseScanPayload(t *testing.T) {
	p, err := ParseScanPayload(`{"attendeeId":"a1","eventId":"e1","timestamp":"2026-01-02T10:00:00Z"}`)
	require.NoError(t, err)
	assert.Equal(t, "a1", p.AttendeeID)
	assert.Equal(t, "e1", p.EventID)

	p, err = ParseScanPayload("  a2 ")
	require.NoError(t, err)
	assert.Equal(t, "a2", p.AttendeeID)
	assert.Empty(t, p.EventID)

	_, err = ParseScanPayload("")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseScanPayload(`{"eventId":"e1"}`)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseScanPayload(`{not json`)
	assert.ErrorIs(t, err, ErrValidation)
}
