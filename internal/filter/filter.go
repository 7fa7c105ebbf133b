// Package filter narrows in-memory attendee and event lists for display.
//
// Every filter is a pure function of its input: active criteria are ANDed,
// the "all" sentinel (or an empty value) disables a criterion, and the
// input order is preserved.
package filter

import (
	"strings"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

// All disables a categorical criterion.
const All = "all"

// Check-in status values accepted by Attendees.Status.
const (
	CheckedIn    = "checked-in"
	NotCheckedIn = "not-checked-in"
)

// Attendees holds the attendee list criteria.
type Attendees struct {
	Search   string // name, email, company
	EventID  string
	Category string
	Status   string // All, CheckedIn or NotCheckedIn
}

// Apply returns the attendees matching every active criterion.
func (f Attendees) Apply(in []model.Attendee) []model.Attendee {
	if !f.active() {
		return in
	}
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Attendee, 0, len(in))
	for _, a := range in {
		if needle != "" && !containsAny(needle, a.Name, a.Email, a.Company) {
			continue
		}
		if on(f.EventID) && a.EventID != f.EventID {
			continue
		}
		if on(f.Category) && string(a.Category) != f.Category {
			continue
		}
		if on(f.Status) && !matchesCheckIn(f.Status, a.CheckedIn) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (f Attendees) active() bool {
	return strings.TrimSpace(f.Search) != "" || on(f.EventID) || on(f.Category) || on(f.Status)
}

func matchesCheckIn(status string, checkedIn bool) bool {
	switch status {
	case CheckedIn:
		return checkedIn
	case NotCheckedIn:
		return !checkedIn
	default:
		return false
	}
}

// Events holds the event list criteria.
type Events struct {
	Search   string // title, description, location
	Status   string
	Category string
}

// Apply returns the events matching every active criterion.
func (f Events) Apply(in []model.Event) []model.Event {
	if !f.active() {
		return in
	}
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Event, 0, len(in))
	for _, e := range in {
		if needle != "" && !containsAny(needle, e.Title, e.Description, e.Location) {
			continue
		}
		if on(f.Status) && string(e.Status) != f.Status {
			continue
		}
		if on(f.Category) && e.Category != f.Category {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (f Events) active() bool {
	return strings.TrimSpace(f.Search) != "" || on(f.Status) || on(f.Category)
}

func on(v string) bool {
	return v != "" && v != All
}

func containsAny(needle string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
