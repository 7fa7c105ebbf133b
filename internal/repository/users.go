package repository

import (
	"context"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `uid, display_name, email, role, created_at, updated_at`

func scanUser(row scanner) (model.UserProfile, error) {
	var u model.UserProfile
	err := row.Scan(&u.UID, &u.DisplayName, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// UserRepository handles persistence for user profiles.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure inserts p unless a profile with the same uid exists, and returns
// the stored profile. Existing profiles are never overwritten.
func (r *UserRepository) Ensure(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (uid, display_name, email, role)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (uid) DO NOTHING`,
		p.UID, p.DisplayName, p.Email, p.Role,
	)
	if err != nil {
		return nil, storeErr("insert user", err)
	}
	return r.GetByUID(ctx, p.UID)
}

// GetByUID returns a profile or ErrNotFound.
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*model.UserProfile, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid))
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return &u, nil
}

// Update merges patch into the stored profile.
func (r *UserRepository) Update(ctx context.Context, uid string, patch model.ProfilePatch) (*model.UserProfile, error) {
	var updated model.UserProfile
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanUser(tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE uid = $1 FOR UPDATE`, uid))
		if err != nil {
			return storeErr("lock user", err)
		}
		patch.Apply(&current)

		updated, err = scanUser(tx.QueryRow(ctx,
			`UPDATE users
			 SET display_name = $2, email = $3, role = $4, updated_at = clock_timestamp()
			 WHERE uid = $1
			 RETURNING `+userColumns,
			uid, current.DisplayName, current.Email, current.Role,
		))
		if err != nil {
			return storeErr("update user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
