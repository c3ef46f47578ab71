// Package cards stores the cards table. Ownership is always checked by
// joining card_groups in the same statement.
package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

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

// CreateBatch inserts all drafts into the group with a single multi-row
// INSERT and returns the number of rows written.
func (r *PostgresRepository) CreateBatch(ctx context.Context, groupID int64, drafts []models.CardDraft) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO cards (group_id, question, answer) VALUES ")

	args := make([]any, 0, 1+2*len(drafts))
	args = append(args, groupID)
	for i, d := range drafts {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($1, $%d, $%d)", 2*i+2, 2*i+3)
		args = append(args, d.Question, d.Answer)
	}

	res, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return int(n), nil
}

const selectCard = `SELECT c.id, c.group_id, c.question, c.answer,
		c.explanation_text, c.explanation_difficulty, c.explanation_generated_at, c.created_at
	FROM cards c
	JOIN card_groups g ON g.id = c.group_id`

func scanCard(row interface{ Scan(...any) error }) (*models.Card, error) {
	var (
		c          models.Card
		text       sql.NullString
		difficulty sql.NullString
		generated  sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.GroupID, &c.Question, &c.Answer, &text, &difficulty, &generated, &c.CreatedAt); err != nil {
		return nil, err
	}
	if text.Valid {
		c.ExplanationText = &text.String
	}
	if difficulty.Valid {
		c.ExplanationDifficulty = &difficulty.String
	}
	if generated.Valid {
		c.ExplanationGeneratedAt = &generated.Time
	}
	return &c, nil
}

// ListByOwner returns every card of every group owned by userID, ordered by
// id within each group.
func (r *PostgresRepository) ListByOwner(ctx context.Context, userID int64) ([]models.Card, error) {
	rows, err := r.db.QueryContext(ctx, selectCard+` WHERE g.user_id = $1 ORDER BY c.group_id, c.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// GetOwned returns the card only when its group belongs to userID;
// otherwise common.ErrorNotFound.
func (r *PostgresRepository) GetOwned(ctx context.Context, cardID, userID int64) (*models.Card, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx, selectCard+` WHERE c.id = $1 AND g.user_id = $2`, cardID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// SetExplanation overwrites the card's explanation, guarded by the same
// ownership join as GetOwned.
func (r *PostgresRepository) SetExplanation(ctx context.Context, cardID, userID int64, text, difficulty string) (time.Time, error) {
	query :=
		`UPDATE cards c
		 SET explanation_text = $3, explanation_difficulty = $4, explanation_generated_at = now()
		 FROM card_groups g
		 WHERE c.id = $1 AND g.id = c.group_id AND g.user_id = $2
		 RETURNING c.explanation_generated_at`

	var at time.Time
	if err := r.db.QueryRowContext(ctx, query, cardID, userID, text, difficulty).Scan(&at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrorNotFound
		}
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return at, nil
}
