// Package memstore is an in-process record store with the same semantics as
// the PostgreSQL repositories. Each operation runs under one mutex, which
// gives it the all-or-nothing behaviour of a transaction.
//
// It backs `--store=memory` for local work and the service tests.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/google/uuid"
)

type eventRow struct {
	model.Event
	seq uint64
}

type attendeeRow struct {
	model.Attendee
	seq uint64
}

// Store holds every collection.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	seq       uint64
	events    map[string]*eventRow
	attendees map[string]*attendeeRow
	users     map[string]*model.UserProfile
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:       func() time.Time { return time.Now().UTC() },
		events:    make(map[string]*eventRow),
		attendees: make(map[string]*attendeeRow),
		users:     make(map[string]*model.UserProfile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the event repository view.
func (s *Store) Events() *EventRepository { return &EventRepository{s: s} }

// Attendees returns the attendee repository view.
func (s *Store) Attendees() *AttendeeRepository { return &AttendeeRepository{s: s} }

// Users returns the profile repository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// newestFirst orders by creation time descending, then insertion order
// descending for equal timestamps.
func newestFirst(aTime, bTime time.Time, aSeq, bSeq uint64) int {
	if c := bTime.Compare(aTime); c != 0 {
		return c
	}
	return cmp.Compare(bSeq, aSeq)
}

// EventRepository is the events collection.
type EventRepository struct {
	s *Store
}

// Create inserts e with zeroed counters and assigns its ID and timestamps.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e.ID = uuid.New().String()
	e.TotalAttendees = 0
	e.CheckedInCount = 0
	e.CreatedAt = now
	e.UpdatedAt = now
	s.events[e.ID] = &eventRow{Event: *e, seq: s.nextSeq()}
	return nil
}

// List returns events newest first, optionally only those of creatorUID.
func (r *EventRepository) List(ctx context.Context, creatorUID string) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]*eventRow, 0, len(s.events))
	for _, row := range s.events {
		if creatorUID == "" || row.CreatorUID == creatorUID {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b *eventRow) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.seq, b.seq)
	})

	var events []model.Event
	for _, row := range rows {
		events = append(events, row.Event)
	}
	return events, nil
}

// GetByID returns a copy of the event or repository.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e := row.Event
	return &e, nil
}

// Update merges patch into the event.
func (r *EventRepository) Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(&row.Event)
	row.UpdatedAt = s.now()
	e := row.Event
	return &e, nil
}

// Delete removes the event and its attendees.
func (r *EventRepository) Delete(ctx context.Context, id string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return 0, repository.ErrNotFound
	}
	removed := 0
	for aid, a := range s.attendees {
		if a.EventID == id {
			delete(s.attendees, aid)
			removed++
		}
	}
	delete(s.events, id)
	return removed, nil
}

// Reconcile recomputes both counters from the attendee records.
func (r *EventRepository) Reconcile(ctx context.Context, id string) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	total, checkedIn := 0, 0
	for _, a := range s.attendees {
		if a.EventID != id {
			continue
		}
		total++
		if a.CheckedIn {
			checkedIn++
		}
	}
	row.TotalAttendees = total
	row.CheckedInCount = checkedIn
	row.UpdatedAt = s.now()
	e := row.Event
	return &e, nil
}

// AttendeeRepository is the attendees collection.
type AttendeeRepository struct {
	s *Store
}

// Create inserts a and increments the event's totalAttendees. Nothing is
// written when the event does not exist.
func (r *AttendeeRepository) Create(ctx context.Context, a *model.Attendee) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[a.EventID]
	if !ok {
		return repository.ErrNotFound
	}
	now := s.now()
	a.ID = uuid.New().String()
	a.CheckedIn = false
	a.CheckedInAt = nil
	a.CreatedAt = now
	a.UpdatedAt = now
	s.attendees[a.ID] = &attendeeRow{Attendee: *a, seq: s.nextSeq()}
	event.TotalAttendees++
	event.UpdatedAt = now
	return nil
}

// ListByEvent returns the event's attendees newest first.
func (r *AttendeeRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Attendee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []*attendeeRow
	for _, row := range s.attendees {
		if row.EventID == eventID {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b *attendeeRow) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.seq, b.seq)
	})

	var attendees []model.Attendee
	for _, row := range rows {
		attendees = append(attendees, copyAttendee(row.Attendee))
	}
	return attendees, nil
}

// GetByID returns a copy of the attendee or repository.ErrNotFound.
func (r *AttendeeRepository) GetByID(ctx context.Context, id string) (*model.Attendee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.attendees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a := copyAttendee(row.Attendee)
	return &a, nil
}

// CheckIn flips checkedIn and increments checkedInCount once. changed is
// false when the attendee was already checked in.
func (r *AttendeeRepository) CheckIn(ctx context.Context, attendeeID, eventID string) (*model.Attendee, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	row, ok := s.attendees[attendeeID]
	if !ok || row.EventID != eventID {
		return nil, false, repository.ErrNotFound
	}
	if row.CheckedIn {
		a := copyAttendee(row.Attendee)
		return &a, false, nil
	}

	now := s.now()
	row.CheckedIn = true
	row.CheckedInAt = &now
	row.UpdatedAt = now
	event.CheckedInCount++
	event.UpdatedAt = now

	a := copyAttendee(row.Attendee)
	return &a, true, nil
}

// Update merges patch into the attendee.
func (r *AttendeeRepository) Update(ctx context.Context, id string, patch model.AttendeePatch) (*model.Attendee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.attendees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(&row.Attendee)
	row.UpdatedAt = s.now()
	a := copyAttendee(row.Attendee)
	return &a, nil
}

// Delete removes the attendee and decrements the event's counters.
func (r *AttendeeRepository) Delete(ctx context.Context, id string) (*model.Attendee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.attendees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.attendees, id)
	if event, ok := s.events[row.EventID]; ok {
		event.TotalAttendees--
		if row.CheckedIn {
			event.CheckedInCount--
		}
		event.UpdatedAt = s.now()
	}
	a := copyAttendee(row.Attendee)
	return &a, nil
}

// copyAttendee detaches the CheckedInAt pointer from the stored record.
func copyAttendee(a model.Attendee) model.Attendee {
	if a.CheckedInAt != nil {
		t := *a.CheckedInAt
		a.CheckedInAt = &t
	}
	return a
}

// UserRepository is the users collection.
type UserRepository struct {
	s *Store
}

// Ensure stores p unless the uid already has a profile and returns the
// stored profile.
func (r *UserRepository) Ensure(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[p.UID]; ok {
		u := *existing
		return &u, nil
	}
	now := s.now()
	stored := *p
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.users[p.UID] = &stored
	u := stored
	return &u, nil
}

// GetByUID returns a copy of the profile or repository.ErrNotFound.
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*model.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := *existing
	return &u, nil
}

// Update merges patch into the profile.
func (r *UserRepository) Update(ctx context.Context, uid string, patch model.ProfilePatch) (*model.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(existing)
	existing.UpdatedAt = s.now()
	u := *existing
	return &u, nil
}
