package users

import (
	"context"

	"github.com/dmitrijs2005/flippy/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id int64) error
	Update(ctx context.Context, id int64, upd models.UserUpdate) error
	DecrementQuota(ctx context.Context, id int64) (int, error)
	SetAPIKey(ctx context.Context, id int64, key string) error
}
