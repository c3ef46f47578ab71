// Package apikeys stores issued API keys.
package apikeys

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/dbx"
	"github.com/dmitrijs2005/flippy/internal/server/models"
)

// DefaultKeyName is used when the caller does not name the key.
const DefaultKeyName = "Default Key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create stores an active key. A key for a missing user surfaces as
// common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, key *models.APIKey) (*models.APIKey, error) {
	if key.Name == "" {
		key.Name = DefaultKeyName
	}

	query :=
		`INSERT INTO api_keys (user_id, api_key, key_name)
		 VALUES ($1, $2, $3)
		 RETURNING id, is_active, created_at`

	err := r.db.QueryRowContext(ctx, query, key.UserID, key.Key, key.Name).
		Scan(&key.ID, &key.IsActive, &key.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return key, nil
}
