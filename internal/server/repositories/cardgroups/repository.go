package cardgroups

import (
	"context"

	"github.com/dmitrijs2005/flippy/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, group *models.CardGroup) (*models.CardGroup, error)
	ListByUser(ctx context.Context, userID int64) ([]models.CardGroup, error)
}
