// Package cardgroups stores the card_groups table.
package cardgroups

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/flippy/internal/dbx"
	"github.com/dmitrijs2005/flippy/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, group *models.CardGroup) (*models.CardGroup, error) {
	query :=
		`INSERT INTO card_groups (user_id, name, description)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, group.UserID, group.Name, group.Description).
		Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return group, nil
}

// ListByUser returns the user's groups newest first, without cards.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]models.CardGroup, error) {
	query :=
		`SELECT id, user_id, name, description, created_at
		 FROM card_groups
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.CardGroup
	for rows.Next() {
		var g models.CardGroup
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
