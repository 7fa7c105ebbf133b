package service

import (
	"context"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

// EventStats computes attendance figures from the attendee records.
func (s *EventService) EventStats(ctx context.Context, eventID string) (*model.EventStats, error) {
	if err := required("eventId", eventID); err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, wrap("event stats", err)
	}
	attendees, err := s.attendees.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, wrap("event stats", err)
	}

	checkedIn := 0
	for _, a := range attendees {
		if a.CheckedIn {
			checkedIn++
		}
	}
	if attendees == nil {
		attendees = []model.Attendee{}
	}
	return &model.EventStats{
		Event:              event,
		TotalAttendees:     len(attendees),
		CheckedInAttendees: checkedIn,
		PendingAttendees:   len(attendees) - checkedIn,
		AttendanceRate:     model.Rate(checkedIn, len(attendees)),
		Attendees:          attendees,
	}, nil
}

// Dashboard aggregates the counters of creatorUID's events, or of every
// event when creatorUID is empty.
func (s *EventService) Dashboard(ctx context.Context, creatorUID string) (*model.Dashboard, error) {
	events, err := s.events.List(ctx, creatorUID)
	if err != nil {
		return nil, wrap("dashboard", err)
	}
	d := &model.Dashboard{
		TotalEvents:    len(events),
		EventsByStatus: make(map[model.EventStatus]int, len(model.EventStatuses)),
	}
	for _, status := range model.EventStatuses {
		d.EventsByStatus[status] = 0
	}
	for _, e := range events {
		d.TotalAttendees += e.TotalAttendees
		d.TotalCheckedIn += e.CheckedInCount
		d.EventsByStatus[e.Status]++
	}
	d.AttendanceRate = model.Rate(d.TotalCheckedIn, d.TotalAttendees)
	return d, nil
}
