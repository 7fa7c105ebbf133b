// Package model defines the core domain types for the event check-in console.
package model

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusActive    EventStatus = "active"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// EventStatuses lists every valid status in display order.
var EventStatuses = []EventStatus{StatusDraft, StatusPublished, StatusActive, StatusCompleted, StatusCancelled}

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	for _, v := range EventStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// AttendeeCategory classifies an attendee's registration.
type AttendeeCategory string

const (
	CategoryGeneral AttendeeCategory = "general"
	CategoryVIP     AttendeeCategory = "vip"
	CategorySpeaker AttendeeCategory = "speaker"
	CategorySponsor AttendeeCategory = "sponsor"
	CategoryPress   AttendeeCategory = "press"
	CategoryStaff   AttendeeCategory = "staff"
)

// AttendeeCategories lists every valid category.
var AttendeeCategories = []AttendeeCategory{
	CategoryGeneral, CategoryVIP, CategorySpeaker, CategorySponsor, CategoryPress, CategoryStaff,
}

// Valid reports whether c is a known category.
func (c AttendeeCategory) Valid() bool {
	for _, v := range AttendeeCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Event is a schedulable occasion with attendance tracking.
//
// TotalAttendees and CheckedInCount are derived counters owned by the
// repositories. They always equal the number of attendee rows (and
// checked-in attendee rows) referencing the event.
type Event struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Location       string      `json:"location"`
	Category       string      `json:"category"`
	Date           time.Time   `json:"date"`
	Status         EventStatus `json:"status"`
	MaxAttendees   int         `json:"maxAttendees"`
	TotalAttendees int         `json:"totalAttendees"`
	CheckedInCount int         `json:"checkedInCount"`
	CreatorUID     string      `json:"creatorUid"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// AttendanceRate returns the checked-in percentage rounded to two decimals.
func (e *Event) AttendanceRate() float64 {
	return Rate(e.CheckedInCount, e.TotalAttendees)
}

// IsFull reports whether registrations reached MaxAttendees.
// Capacity is informational; nothing rejects registrations past it.
func (e *Event) IsFull() bool {
	return e.MaxAttendees > 0 && e.TotalAttendees >= e.MaxAttendees
}

// Attendee is a person registered against exactly one event.
type Attendee struct {
	ID          string           `json:"id"`
	EventID     string           `json:"eventId"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Phone       string           `json:"phone"`
	Company     string           `json:"company"`
	Category    AttendeeCategory `json:"category"`
	Notes       string           `json:"notes"`
	CheckedIn   bool             `json:"checkedIn"`
	CheckedInAt *time.Time       `json:"checkedInAt"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// UserProfile is the console's record of a signed-in user.
type UserProfile struct {
	UID         string    `json:"uid"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Identity is what the identity provider tells us about the caller.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Location     string      `json:"location"`
	Category     string      `json:"category"`
	Date         time.Time   `json:"date"`
	Status       EventStatus `json:"status"`
	MaxAttendees int         `json:"maxAttendees"`
}

// EventPatch carries the editable event fields. Nil fields are left alone.
type EventPatch struct {
	Title        *string      `json:"title,omitempty"`
	Description  *string      `json:"description,omitempty"`
	Location     *string      `json:"location,omitempty"`
	Category     *string      `json:"category,omitempty"`
	Date         *time.Time   `json:"date,omitempty"`
	Status       *EventStatus `json:"status,omitempty"`
	MaxAttendees *int         `json:"maxAttendees,omitempty"`
}

// CreateAttendeeRequest is the payload for registering an attendee.
type CreateAttendeeRequest struct {
	EventID  string           `json:"eventId"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Company  string           `json:"company"`
	Category AttendeeCategory `json:"category"`
	Notes    string           `json:"notes"`
}

// AttendeePatch carries the editable attendee fields. Check-in state and
// event ownership are not editable.
type AttendeePatch struct {
	Name     *string           `json:"name,omitempty"`
	Email    *string           `json:"email,omitempty"`
	Phone    *string           `json:"phone,omitempty"`
	Company  *string           `json:"company,omitempty"`
	Category *AttendeeCategory `json:"category,omitempty"`
	Notes    *string           `json:"notes,omitempty"`
}

// ProfilePatch carries the editable profile fields.
type ProfilePatch struct {
	DisplayName *string `json:"displayName,omitempty"`
	Email       *string `json:"email,omitempty"`
	Role        *string `json:"role,omitempty"`
}

// CheckInResult is the outcome of a check-in attempt. AlreadyCheckedIn is
// advisory: the attendee was checked in earlier and no counter moved.
type CheckInResult struct {
	Attendee         *Attendee `json:"attendee"`
	AlreadyCheckedIn bool      `json:"alreadyCheckedIn"`
}

// EventStats summarises attendance for one event.
type EventStats struct {
	Event              *Event     `json:"event"`
	TotalAttendees     int        `json:"totalAttendees"`
	CheckedInAttendees int        `json:"checkedInAttendees"`
	PendingAttendees   int        `json:"pendingAttendees"`
	AttendanceRate     float64    `json:"attendanceRate"`
	Attendees          []Attendee `json:"attendees"`
}

// Dashboard aggregates counters across a set of events.
type Dashboard struct {
	TotalEvents    int                 `json:"totalEvents"`
	TotalAttendees int                 `json:"totalAttendees"`
	TotalCheckedIn int                 `json:"totalCheckedIn"`
	AttendanceRate float64             `json:"attendanceRate"`
	EventsByStatus map[EventStatus]int `json:"eventsByStatus"`
}

// ImportResult reports a bulk attendee import.
type ImportResult struct {
	Created int           `json:"created"`
	Errors  []ImportError `json:"errors"`
}

// ImportError describes one rejected import row. Row is 1-based, header excluded.
type ImportError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ErrorResponse is a standard JSON error envelope. Data holds a partial
// result when a batch operation stopped part way.
type ErrorResponse struct {
	Error string `json:"error"`
	Data  any    `json:"data,omitempty"`
}

// MutationResponse wraps the result of a successful mutation together with
// the notification text the console shows.
type MutationResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// SuccessMessage renders "{Entity} {action} successfully!".
func SuccessMessage(entity, action string) string {
	return capitalize(entity) + " " + action + " successfully!"
}

// Rate returns part/total as a percentage rounded to two decimals.
func Rate(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
