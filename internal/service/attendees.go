package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-checkin/internal/filter"
	"github.com/Shivanand-hulikatti/event-checkin/internal/live"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
)

// CreateAttendee registers an attendee. The event's totalAttendees moves in
// the same store transaction; a missing event fails with
// repository.ErrNotFound and writes nothing.
func (s *EventService) CreateAttendee(ctx context.Context, req model.CreateAttendeeRequest) (*model.Attendee, error) {
	attendee, err := model.NewAttendee(req)
	if err != nil {
		return nil, err
	}
	if err := s.attendees.Create(ctx, attendee); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", attendee.EventID, err)
		}
		return nil, wrap("create attendee", err)
	}
	s.announce(ctx, live.EventsTopic, live.AttendeesTopic(attendee.EventID))
	return attendee, nil
}

// GetAttendees returns the event's attendees newest first, narrowed by f.
func (s *EventService) GetAttendees(ctx context.Context, eventID string, f filter.Attendees) ([]model.Attendee, error) {
	if err := required("eventId", eventID); err != nil {
		return nil, err
	}
	attendees, err := s.attendees.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, wrap("list attendees", err)
	}
	return f.Apply(attendees), nil
}

// GetAttendee returns one attendee.
func (s *EventService) GetAttendee(ctx context.Context, id string) (*model.Attendee, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	attendee, err := s.attendees.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("get attendee", err)
	}
	return attendee, nil
}

// UpdateAttendee edits an attendee's descriptive fields.
func (s *EventService) UpdateAttendee(ctx context.Context, id string, patch model.AttendeePatch) (*model.Attendee, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	attendee, err := s.attendees.Update(ctx, id, patch)
	if err != nil {
		return nil, wrap("update attendee", err)
	}
	s.announce(ctx, live.AttendeesTopic(attendee.EventID))
	return attendee, nil
}

// DeleteAttendee removes an attendee and decrements the event's counters.
func (s *EventService) DeleteAttendee(ctx context.Context, id string) (*model.Attendee, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	removed, err := s.attendees.Delete(ctx, id)
	if err != nil {
		return nil, wrap("delete attendee", err)
	}
	s.announce(ctx, live.EventsTopic, live.AttendeesTopic(removed.EventID))
	return removed, nil
}

// CheckInAttendee marks the attendee present. Calling it again for the same
// attendee, concurrently or later, leaves checkedInCount alone and reports
// AlreadyCheckedIn.
func (s *EventService) CheckInAttendee(ctx context.Context, attendeeID, eventID string) (*model.CheckInResult, error) {
	if err := required("attendeeId", attendeeID); err != nil {
		return nil, err
	}
	if err := required("eventId", eventID); err != nil {
		return nil, err
	}
	attendee, changed, err := s.attendees.CheckIn(ctx, attendeeID, eventID)
	if err != nil {
		return nil, wrap("check in attendee", err)
	}
	if changed {
		s.announce(ctx, live.EventsTopic, live.AttendeesTopic(eventID))
	}
	return &model.CheckInResult{Attendee: attendee, AlreadyCheckedIn: !changed}, nil
}

// SubscribeAttendees delivers the event's attendee list now and after
// every change until the returned function is called.
func (s *EventService) SubscribeAttendees(ctx context.Context, eventID string, fn func(live.Snapshot[model.Attendee])) (func(), error) {
	if err := required("eventId", eventID); err != nil {
		return nil, err
	}
	load := func(ctx context.Context) ([]model.Attendee, error) {
		return s.attendees.ListByEvent(ctx, eventID)
	}
	topic := live.AttendeesTopic(eventID)
	unsubscribe, err := live.Subscribe(ctx, s.hub, topic, load, fn)
	if err != nil {
		return nil, wrap("subscribe attendees", err)
	}
	s.logger.Debug("subscription opened", "topic", topic, "subscribers", s.hub.Subscribers(topic))
	return unsubscribe, nil
}
