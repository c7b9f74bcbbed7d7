package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lunoxdev/mai-store/internal/domain"
)

var ErrProfileNotFound = errors.New("profile not found")

func (r *Postgres) GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `SELECT id, email, role FROM profiles WHERE id = $1`

	var p domain.Profile
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Email, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	return &p, nil
}

// UpsertProfileEmail creates the profile on first sign-in and backfills the
// email if the row exists without one. An existing email is never changed
// and the role is never touched from the auth path.
func (r *Postgres) UpsertProfileEmail(ctx context.Context, id uuid.UUID, email string) error {
	query := `INSERT INTO profiles (id, email, role)
	          VALUES ($1, $2, 'customer')
	          ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email
	          WHERE profiles.email = ''`

	if _, err := r.db.ExecContext(ctx, query, id, email); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
