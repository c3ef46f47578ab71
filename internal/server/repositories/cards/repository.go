package cards

import (
	"context"
	"time"

	"github.com/dmitrijs2005/flippy/internal/server/models"
)

// Repository reads and writes cards. Every per-card operation takes the
// caller's user id and matches only cards whose group belongs to that user.
type Repository interface {
	CreateBatch(ctx context.Context, groupID int64, drafts []models.CardDraft) (int, error)
	ListByOwner(ctx context.Context, userID int64) ([]models.Card, error)
	GetOwned(ctx context.Context, cardID, userID int64) (*models.Card, error)
	SetExplanation(ctx context.Context, cardID, userID int64, text, difficulty string) (time.Time, error)
}
