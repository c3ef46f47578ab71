package cards

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var cardColumns = []string{
	"id", "group_id", "question", "answer",
	"explanation_text", "explanation_difficulty", "explanation_generated_at", "created_at",
}

func TestCreateBatch(t *testing.T) {
	t.Run("multi-row insert", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		q := regexp.QuoteMeta(`INSERT INTO cards (group_id, question, answer) VALUES ($1, $2, $3), ($1, $4, $5)`)
		mock.ExpectExec(q).
			WithArgs(int64(9), "Q1", "A1", "Q2", "A2").
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := repo.CreateBatch(context.Background(), 9, []models.CardDraft{
			{Question: "Q1", Answer: "A1"},
			{Question: "Q2", Answer: "A2"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty is a no-op", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		n, err := repo.CreateBatch(context.Background(), 9, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`INSERT\s+INTO\s+cards`).WillReturnError(errors.New("boom"))

		_, err := repo.CreateBatch(context.Background(), 9, []models.CardDraft{{Question: "Q", Answer: "A"}})
		require.Error(t, err)
	})
}

func TestListByOwner(t *testing.T) {
	q := `(?s)FROM\s+cards\s+c\s+JOIN\s+card_groups\s+g\s+ON\s+g\.id\s*=\s*c\.group_id\s+WHERE\s+g\.user_id\s*=\s*\$1\s+ORDER\s+BY\s+c\.group_id,\s*c\.id\s+ASC$`

	repo, mock := newRepoWithMock(t)
	now := time.Now()
	mock.ExpectQuery(q).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(cardColumns).
			AddRow(int64(1), int64(2), "Q1", "A1", nil, nil, nil, now).
			AddRow(int64(2), int64(2), "Q2", "A2", "text", "hard", now, now))

	got, err := repo.ListByOwner(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].ExplanationText)
	assert.Nil(t, got[0].ExplanationGeneratedAt)
	require.NotNil(t, got[1].ExplanationDifficulty)
	assert.Equal(t, "hard", *got[1].ExplanationDifficulty)
	assert.Equal(t, "text", *got[1].ExplanationText)
}

func TestGetOwned(t *testing.T) {
	q := `(?s)WHERE\s+c\.id\s*=\s*\$1\s+AND\s+g\.user_id\s*=\s*\$2$`

	t.Run("owned", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(int64(5), int64(1)).
			WillReturnRows(sqlmock.NewRows(cardColumns).
				AddRow(int64(5), int64(2), "Q", "A", nil, nil, nil, time.Now()))

		c, err := repo.GetOwned(context.Background(), 5, 1)
		require.NoError(t, err)
		assert.Equal(t, "Q", c.Question)
	})

	t.Run("not owned or absent", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(int64(5), int64(2)).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetOwned(context.Background(), 5, 2)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestSetExplanation(t *testing.T) {
	q := `(?s)^UPDATE\s+cards\s+c\s+SET\s+explanation_text\s*=\s*\$3,\s*explanation_difficulty\s*=\s*\$4,\s*explanation_generated_at\s*=\s*now\(\)\s+FROM\s+card_groups\s+g\s+WHERE\s+c\.id\s*=\s*\$1\s+AND\s+g\.id\s*=\s*c\.group_id\s+AND\s+g\.user_id\s*=\s*\$2\s+RETURNING\s+c\.explanation_generated_at$`

	t.Run("updated", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		now := time.Now()
		mock.ExpectQuery(q).WithArgs(int64(5), int64(1), "text", "easy").
			WillReturnRows(sqlmock.NewRows([]string{"explanation_generated_at"}).AddRow(now))

		at, err := repo.SetExplanation(context.Background(), 5, 1, "text", "easy")
		require.NoError(t, err)
		assert.Equal(t, now, at)
	})

	t.Run("foreign card", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(int64(5), int64(2), "text", "easy").WillReturnError(sql.ErrNoRows)

		_, err := repo.SetExplanation(context.Background(), 5, 2, "text", "easy")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}
