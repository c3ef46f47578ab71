package apikeys

import (
	"context"

	"github.com/dmitrijs2005/flippy/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, key *models.APIKey) (*models.APIKey, error)
}
