// Package users is the credential store: the users table.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/dbx"
	"github.com/dmitrijs2005/flippy/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a user with the schema defaults for role and quota. A
// duplicate email surfaces as common.ErrEmailTaken; the unique constraint
// is the only uniqueness check, so concurrent signups cannot both succeed.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, role, remaining_api_calls, created_at`

	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.Role, &user.RemainingAPICalls, &user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const selectUser = `SELECT id, email, password_hash, role, remaining_api_calls, api_key, created_at FROM users`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var apiKey sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.RemainingAPICalls, &apiKey, &u.CreatedAt); err != nil {
		return nil, err
	}
	if apiKey.Valid && apiKey.String != "" {
		u.APIKey = &apiKey.String
	}
	return u, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+" ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

// Update applies a role change and/or an additive quota delta in one
// statement. The quota never drops below zero.
func (r *PostgresRepository) Update(ctx context.Context, id int64, upd models.UserUpdate) error {
	query :=
		`UPDATE users
		 SET role = COALESCE($2, role),
		     remaining_api_calls = GREATEST(remaining_api_calls + COALESCE($3, 0), 0)
		 WHERE id = $1`

	var role sql.NullString
	if upd.Role != nil {
		role = sql.NullString{String: *upd.Role, Valid: true}
	}
	var delta sql.NullInt64
	if upd.QuotaDelta != nil {
		delta = sql.NullInt64{Int64: int64(*upd.QuotaDelta), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, id, role, delta)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

// DecrementQuota consumes one API call if any remain and returns what is
// left. Check and decrement happen in a single conditional UPDATE, so two
// concurrent callers cannot both spend the last unit.
func (r *PostgresRepository) DecrementQuota(ctx context.Context, id int64) (int, error) {
	query :=
		`UPDATE users SET remaining_api_calls = remaining_api_calls - 1
		 WHERE id = $1 AND remaining_api_calls > 0
		 RETURNING remaining_api_calls`

	var remaining int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&remaining); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrQuotaExhausted
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return remaining, nil
}

func (r *PostgresRepository) SetAPIKey(ctx context.Context, id int64, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET api_key = $2 WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
