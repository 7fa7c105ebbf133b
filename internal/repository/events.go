package repository

import (
	"context"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, description, location, category, date, status,
	max_attendees, total_attendees, checked_in_count, creator_uid, created_at, updated_at`

func scanEvent(row scanner) (model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.Category, &e.Date, &e.Status,
		&e.MaxAttendees, &e.TotalAttendees, &e.CheckedInCount, &e.CreatorUID, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event with zeroed counters. The generated ID and the
// server timestamps are written back into e.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	e.ID = uuid.New().String()
	e.TotalAttendees = 0
	e.CheckedInCount = 0

	err := r.db.QueryRow(ctx,
		`INSERT INTO events (id, title, description, location, category, date, status,
		                     max_attendees, total_attendees, checked_in_count, creator_uid)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, $9)
		 RETURNING created_at, updated_at`,
		e.ID, e.Title, e.Description, e.Location, e.Category, e.Date, e.Status, e.MaxAttendees, e.CreatorUID,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return storeErr("insert event", err)
	}
	return nil
}

// List returns events ordered by creation time descending. An empty
// creatorUID lists every event.
func (r *EventRepository) List(ctx context.Context, creatorUID string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE $1::text = '' OR creator_uid = $1
		 ORDER BY created_at DESC, id DESC`,
		creatorUID,
	)
	if err != nil {
		return nil, storeErr("list events", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storeErr("scan event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list events", err)
	}
	return events, nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, storeErr("get event", err)
	}
	return &e, nil
}

// Update merges patch into the stored event and refreshes updated_at.
// Counters and ownership are never written here.
func (r *EventRepository) Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error) {
	var updated model.Event
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanEvent(tx.QueryRow(ctx,
			`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return storeErr("lock event", err)
		}
		patch.Apply(&current)

		updated, err = scanEvent(tx.QueryRow(ctx,
			`UPDATE events
			 SET title = $2, description = $3, location = $4, category = $5,
			     date = $6, status = $7, max_attendees = $8, updated_at = clock_timestamp()
			 WHERE id = $1
			 RETURNING `+eventColumns,
			id, current.Title, current.Description, current.Location, current.Category,
			current.Date, current.Status, current.MaxAttendees,
		))
		if err != nil {
			return storeErr("update event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the event and every attendee that references it in one
// transaction. Either everything is gone afterwards or nothing changed.
// It returns the number of attendees removed.
func (r *EventRepository) Delete(ctx context.Context, id string) (int, error) {
	var removed int
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		// Holding the event lock keeps new registrations out until commit.
		if err := lockEvent(ctx, tx, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM attendees WHERE event_id = $1`, id)
		if err != nil {
			return storeErr("delete attendees", err)
		}
		removed = int(tag.RowsAffected())

		if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
			return storeErr("delete event", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Reconcile recomputes both counters from the attendee rows.
//
// The event lock is taken by its own statement first. Under READ COMMITTED
// each statement reads a fresh snapshot, so the recount that follows sees
// every attendee committed by the registrations it waited for. A single
// UPDATE with count subqueries would recheck only the event row after
// waiting and count attendees from its original snapshot.
func (r *EventRepository) Reconcile(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockEvent(ctx, tx, id); err != nil {
			return err
		}

		var err error
		e, err = scanEvent(tx.QueryRow(ctx,
			`UPDATE events e
			 SET total_attendees  = (SELECT count(*) FROM attendees a WHERE a.event_id = e.id),
			     checked_in_count = (SELECT count(*) FROM attendees a WHERE a.event_id = e.id AND a.checked_in),
			     updated_at       = clock_timestamp()
			 WHERE e.id = $1
			 RETURNING `+eventColumnsQualified,
			id,
		))
		if err != nil {
			return storeErr("reconcile event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const eventColumnsQualified = `e.id, e.title, e.description, e.location, e.category, e.date, e.status,
	e.max_attendees, e.total_attendees, e.checked_in_count, e.creator_uid, e.created_at, e.updated_at`
