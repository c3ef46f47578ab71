package usagelog

import (
	"context"

	"github.com/dmitrijs2005/flippy/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, entry *models.UsageLogEntry) error
	EndpointStats(ctx context.Context) ([]models.EndpointStat, error)
	UserUsage(ctx context.Context) ([]models.UserAPIUsage, error)
}
