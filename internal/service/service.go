// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/filter"
	"github.com/Shivanand-hulikatti/event-checkin/internal/live"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/scanlog"
)

// EventStore persists events. Implementations return repository.ErrNotFound
// for unknown ids.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	List(ctx context.Context, creatorUID string) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error)
	Delete(ctx context.Context, id string) (int, error)
	Reconcile(ctx context.Context, id string) (*model.Event, error)
}

// AttendeeStore persists attendees and keeps the owning event's counters in
// step with every change, atomically.
type AttendeeStore interface {
	Create(ctx context.Context, a *model.Attendee) error
	ListByEvent(ctx context.Context, eventID string) ([]model.Attendee, error)
	GetByID(ctx context.Context, id string) (*model.Attendee, error)
	CheckIn(ctx context.Context, attendeeID, eventID string) (*model.Attendee, bool, error)
	Update(ctx context.Context, id string, patch model.AttendeePatch) (*model.Attendee, error)
	Delete(ctx context.Context, id string) (*model.Attendee, error)
}

// UserStore persists user profiles.
type UserStore interface {
	Ensure(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error)
	GetByUID(ctx context.Context, uid string) (*model.UserProfile, error)
	Update(ctx context.Context, uid string, patch model.ProfilePatch) (*model.UserProfile, error)
}

// Deps are the collaborators of an EventService.
type Deps struct {
	Events    EventStore
	Attendees AttendeeStore
	Users     UserStore
	Scans     scanlog.Store
	Hub       *live.Hub
	// Notifier announces changes. Defaults to Hub.
	Notifier live.Notifier
	Logger   *slog.Logger
}

// EventService orchestrates event, attendee and check-in operations.
type EventService struct {
	events    EventStore
	attendees AttendeeStore
	users     UserStore
	scans     scanlog.Store
	hub       *live.Hub
	notifier  live.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(d Deps) *EventService {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Hub == nil {
		d.Hub = live.NewHub(d.Logger)
	}
	if d.Notifier == nil {
		d.Notifier = d.Hub
	}
	if d.Scans == nil {
		d.Scans = scanlog.NewMemoryStore()
	}
	return &EventService{
		events:    d.Events,
		attendees: d.Attendees,
		users:     d.Users,
		scans:     d.Scans,
		hub:       d.Hub,
		notifier:  d.Notifier,
		logger:    d.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// announce tells subscribers that topics changed. The mutation has already
// committed, so a failed notice is logged rather than returned.
func (s *EventService) announce(ctx context.Context, topics ...string) {
	for _, topic := range topics {
		if err := s.notifier.Notify(ctx, topic); err != nil {
			s.logger.Warn("announce change", "topic", topic, "error", err)
		}
	}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &model.ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}

// isDomainErr reports errors that handlers map to a specific status and
// that are surfaced without extra wrapping.
func isDomainErr(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, model.ErrValidation) ||
		errors.Is(err, repository.ErrUnavailable)
}

func wrap(op string, err error) error {
	if isDomainErr(err) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent validates the request and persists a draft-by-default event
// owned by creatorUID.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest, creatorUID string) (*model.Event, error) {
	event, err := model.NewEvent(req, creatorUID)
	if err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, wrap("create event", err)
	}
	s.announce(ctx, live.EventsTopic)
	return event, nil
}

// ListEvents returns events newest first. An empty creatorUID lists every
// owner's events.
func (s *EventService) ListEvents(ctx context.Context, creatorUID string, f filter.Events) ([]model.Event, error) {
	events, err := s.events.List(ctx, creatorUID)
	if err != nil {
		return nil, wrap("list events", err)
	}
	return f.Apply(events), nil
}

// GetEvent returns the event, or nil without error when it does not exist.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	event, err := s.events.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get event", err)
	}
	return event, nil
}

// UpdateEvent merges patch into the event. Unknown ids fail with
// repository.ErrNotFound.
func (s *EventService) UpdateEvent(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	event, err := s.events.Update(ctx, id, patch)
	if err != nil {
		return nil, wrap("update event", err)
	}
	s.announce(ctx, live.EventsTopic)
	return event, nil
}

// DeleteEvent removes the event together with all of its attendees.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if err := required("id", id); err != nil {
		return err
	}
	removed, err := s.events.Delete(ctx, id)
	if err != nil {
		return wrap("delete event", err)
	}
	s.logger.Info("event deleted", "event_id", id, "attendees_removed", removed)
	if err := s.scans.Clear(ctx, id); err != nil {
		s.logger.Warn("clear scan history", "event_id", id, "error", err)
	}
	s.announce(ctx, live.EventsTopic, live.AttendeesTopic(id))
	return nil
}

// ReconcileEvent recomputes the event's counters from its attendee records.
func (s *EventService) ReconcileEvent(ctx context.Context, id string) (*model.Event, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	before, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("reconcile event", err)
	}
	after, err := s.events.Reconcile(ctx, id)
	if err != nil {
		return nil, wrap("reconcile event", err)
	}
	if before.TotalAttendees != after.TotalAttendees || before.CheckedInCount != after.CheckedInCount {
		s.logger.Warn("event counters drifted",
			"event_id", id,
			"total_before", before.TotalAttendees, "total_after", after.TotalAttendees,
			"checked_in_before", before.CheckedInCount, "checked_in_after", after.CheckedInCount,
		)
	}
	s.announce(ctx, live.EventsTopic)
	return after, nil
}

// SubscribeEvents delivers the (optionally owner-filtered) event list now
// and after every change until the returned function is called.
func (s *EventService) SubscribeEvents(ctx context.Context, creatorUID string, fn func(live.Snapshot[model.Event])) (func(), error) {
	load := func(ctx context.Context) ([]model.Event, error) {
		return s.events.List(ctx, creatorUID)
	}
	unsubscribe, err := live.Subscribe(ctx, s.hub, live.EventsTopic, load, fn)
	if err != nil {
		return nil, wrap("subscribe events", err)
	}
	s.logger.Debug("subscription opened", "topic", live.EventsTopic, "subscribers", s.hub.Subscribers(live.EventsTopic))
	return unsubscribe, nil
}
