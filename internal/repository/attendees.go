package repository

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const attendeeColumns = `id, event_id, name, email, phone, company, category, notes,
	checked_in, checked_in_at, created_at, updated_at`

func scanAttendee(row scanner) (model.Attendee, error) {
	var a model.Attendee
	err := row.Scan(
		&a.ID, &a.EventID, &a.Name, &a.Email, &a.Phone, &a.Company, &a.Category, &a.Notes,
		&a.CheckedIn, &a.CheckedInAt, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// AttendeeRepository handles persistence for attendees and the event
// counters their changes drive.
type AttendeeRepository struct {
	db *pgxpool.Pool
}

// NewAttendeeRepository constructs an AttendeeRepository.
func NewAttendeeRepository(db *pgxpool.Pool) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

// Create registers an attendee and bumps the event's totalAttendees in the
// same transaction. If the event does not exist nothing is written and
// ErrNotFound is returned.
//
// RACE CONDITION EXPLAINED
//
// The naive version reads totalAttendees, adds one in the client and writes
// the result back in a second round trip. Two registrations that read the
// same value both write value+1 and one registration is lost from the count.
// Here the increment is a single UPDATE ... SET total_attendees =
// total_attendees + 1 executed under the event's row lock, and the insert
// commits with it, so the counter can never disagree with the rows.
func (r *AttendeeRepository) Create(ctx context.Context, a *model.Attendee) error {
	a.ID = uuid.New().String()
	a.CheckedIn = false
	a.CheckedInAt = nil

	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		// ── Step 1: increment, which also locks the event row. ───────────
		tag, err := tx.Exec(ctx,
			`UPDATE events
			 SET total_attendees = total_attendees + 1, updated_at = clock_timestamp()
			 WHERE id = $1`,
			a.EventID,
		)
		if err != nil {
			return storeErr("increment total_attendees", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		// ── Step 2: insert the attendee. ────────────────────────────────
		err = tx.QueryRow(ctx,
			`INSERT INTO attendees (id, event_id, name, email, phone, company, category, notes, checked_in)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
			 RETURNING created_at, updated_at`,
			a.ID, a.EventID, a.Name, a.Email, a.Phone, a.Company, a.Category, a.Notes,
		).Scan(&a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return storeErr("insert attendee", err)
		}
		return nil
	})
}

// ListByEvent returns all attendees of an event, newest first.
func (r *AttendeeRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Attendee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+attendeeColumns+`
		 FROM attendees
		 WHERE event_id = $1
		 ORDER BY created_at DESC, id DESC`,
		eventID,
	)
	if err != nil {
		return nil, storeErr("list attendees", err)
	}
	defer rows.Close()

	var attendees []model.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, storeErr("scan attendee", err)
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list attendees", err)
	}
	return attendees, nil
}

// GetByID returns a single attendee or ErrNotFound.
func (r *AttendeeRepository) GetByID(ctx context.Context, id string) (*model.Attendee, error) {
	a, err := scanAttendee(r.db.QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE id = $1`, id))
	if err != nil {
		return nil, storeErr("get attendee", err)
	}
	return &a, nil
}

// CheckIn marks the attendee present and bumps the event's checkedInCount,
// both in one transaction. changed is false when the attendee was already
// checked in; the counter is then left untouched.
//
// The guard lives in the UPDATE's WHERE clause (NOT checked_in). A second
// concurrent caller blocks on the row lock, re-evaluates the predicate after
// the first commits, matches zero rows and therefore never increments.
func (r *AttendeeRepository) CheckIn(ctx context.Context, attendeeID, eventID string) (attendee *model.Attendee, changed bool, err error) {
	err = inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockEvent(ctx, tx, eventID); err != nil {
			return err
		}

		a, err := scanAttendee(tx.QueryRow(ctx,
			`UPDATE attendees
			 SET checked_in = TRUE, checked_in_at = clock_timestamp(), updated_at = clock_timestamp()
			 WHERE id = $1 AND event_id = $2 AND NOT checked_in
			 RETURNING `+attendeeColumns,
			attendeeID, eventID,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			// Either already checked in or not an attendee of this event.
			current, err := scanAttendee(tx.QueryRow(ctx,
				`SELECT `+attendeeColumns+` FROM attendees WHERE id = $1 AND event_id = $2`,
				attendeeID, eventID,
			))
			if err != nil {
				return storeErr("get attendee", err)
			}
			attendee = &current
			return nil
		}
		if err != nil {
			return storeErr("check in attendee", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE events
			 SET checked_in_count = checked_in_count + 1, updated_at = clock_timestamp()
			 WHERE id = $1`,
			eventID,
		); err != nil {
			return storeErr("increment checked_in_count", err)
		}
		attendee = &a
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return attendee, changed, nil
}

// Update merges patch into the stored attendee. Check-in state, event
// ownership and counters are never written here.
func (r *AttendeeRepository) Update(ctx context.Context, id string, patch model.AttendeePatch) (*model.Attendee, error) {
	var updated model.Attendee
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanAttendee(tx.QueryRow(ctx,
			`SELECT `+attendeeColumns+` FROM attendees WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return storeErr("lock attendee", err)
		}
		patch.Apply(&current)

		updated, err = scanAttendee(tx.QueryRow(ctx,
			`UPDATE attendees
			 SET name = $2, email = $3, phone = $4, company = $5, category = $6, notes = $7,
			     updated_at = clock_timestamp()
			 WHERE id = $1
			 RETURNING `+attendeeColumns,
			id, current.Name, current.Email, current.Phone, current.Company, current.Category, current.Notes,
		))
		if err != nil {
			return storeErr("update attendee", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an attendee and decrements the event's totalAttendees, and
// checkedInCount when the attendee had checked in, in one transaction.
// The removed record is returned.
func (r *AttendeeRepository) Delete(ctx context.Context, id string) (*model.Attendee, error) {
	// The owning event is needed first so its lock can be taken before the
	// attendee row's. event_id never changes, so reading it unlocked is safe.
	var eventID string
	if err := r.db.QueryRow(ctx, `SELECT event_id FROM attendees WHERE id = $1`, id).Scan(&eventID); err != nil {
		return nil, storeErr("get attendee", err)
	}

	var removed model.Attendee
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockEvent(ctx, tx, eventID); err != nil {
			return err
		}

		var err error
		removed, err = scanAttendee(tx.QueryRow(ctx,
			`DELETE FROM attendees WHERE id = $1 AND event_id = $2 RETURNING `+attendeeColumns,
			id, eventID,
		))
		if err != nil {
			return storeErr("delete attendee", err)
		}

		checkedIn := 0
		if removed.CheckedIn {
			checkedIn = 1
		}
		if _, err := tx.Exec(ctx,
			`UPDATE events
			 SET total_attendees = total_attendees - 1,
			     checked_in_count = checked_in_count - $2,
			     updated_at = clock_timestamp()
			 WHERE id = $1`,
			eventID, checkedIn,
		); err != nil {
			return storeErr("decrement counters", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &removed, nil
}
