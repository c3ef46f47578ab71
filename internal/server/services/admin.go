package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/dbx"
	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/repomanager"
)

// apiKeyBytes is the entropy of an issued API key (64 hex chars).
const apiKeyBytes = 32

// AdminCredentials are re-verified before every destructive admin action.
type AdminCredentials struct {
	Email    string
	Password string
}

type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	auth        *AuthService
	log         logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, auth *AuthService, log logging.Logger) *AdminService {
	return &AdminService{
		db:          db,
		repomanager: m,
		auth:        auth,
		log:         log.With("service", "admin"),
	}
}

// ListUsers returns every account in id order. Callers must already hold
// an admin session.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		s.log.Error(ctx, "list users", "error", err)
		return nil, common.ErrorInternal
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// DeleteUser removes a user and, through cascades, their card groups and
// cards. Usage history is kept with a NULL user.
func (s *AdminService) DeleteUser(ctx context.Context, creds AdminCredentials, userID int64) error {
	admin, err := s.auth.AuthorizeAdmin(ctx, creds.Email, creds.Password)
	if err != nil {
		return err
	}

	if err := s.repomanager.Users(s.db).Delete(ctx, userID); err != nil {
		return s.storageError(ctx, "delete user", userID, err)
	}

	s.log.Info(ctx, "user deleted", "admin_id", admin.ID, "user_id", userID)
	return nil
}

// UpdateUser changes a user's role and/or adds delta to their quota. The
// resulting quota is clamped at zero. An empty role or a zero delta counts
// as not supplied.
func (s *AdminService) UpdateUser(ctx context.Context, creds AdminCredentials, userID int64, upd models.UserUpdate) error {
	admin, err := s.auth.AuthorizeAdmin(ctx, creds.Email, creds.Password)
	if err != nil {
		return err
	}

	if upd.Role != nil && *upd.Role == "" {
		upd.Role = nil
	}
	if upd.QuotaDelta != nil && *upd.QuotaDelta == 0 {
		upd.QuotaDelta = nil
	}

	if upd.Role == nil && upd.QuotaDelta == nil {
		return validationError("No update parameters provided")
	}
	if upd.Role != nil && !common.IsValidRole(*upd.Role) {
		return validationError("role must be one of: user, admin")
	}

	if err := s.repomanager.Users(s.db).Update(ctx, userID, upd); err != nil {
		return s.storageError(ctx, "update user", userID, err)
	}

	s.log.Info(ctx, "user updated", "admin_id", admin.ID, "user_id", userID)
	return nil
}

// GenerateAPIKey issues a new active key for userID and mirrors it onto
// the user row.
func (s *AdminService) GenerateAPIKey(ctx context.Context, creds AdminCredentials, userID int64, keyName string) (string, error) {
	admin, err := s.auth.AuthorizeAdmin(ctx, creds.Email, creds.Password)
	if err != nil {
		return "", err
	}

	key, err := common.MakeRandHexString(apiKeyBytes)
	if err != nil {
		s.log.Error(ctx, "generate api key", "error", err)
		return "", common.ErrorInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.APIKeys(tx).Create(ctx, &models.APIKey{
			UserID: userID,
			Key:    key,
			Name:   strings.TrimSpace(keyName),
		}); err != nil {
			return err
		}
		return s.repomanager.Users(tx).SetAPIKey(ctx, userID, key)
	})
	if err != nil {
		return "", s.storageError(ctx, "store api key", userID, err)
	}

	s.log.Info(ctx, "api key issued", "admin_id", admin.ID, "user_id", userID)
	return key, nil
}

func (s *AdminService) EndpointStats(ctx context.Context) ([]models.EndpointStat, error) {
	stats, err := s.repomanager.UsageLog(s.db).EndpointStats(ctx)
	if err != nil {
		s.log.Error(ctx, "endpoint stats", "error", err)
		return nil, common.ErrorInternal
	}
	if stats == nil {
		stats = []models.EndpointStat{}
	}
	return stats, nil
}

func (s *AdminService) UserAPIUsage(ctx context.Context) ([]models.UserAPIUsage, error) {
	usage, err := s.repomanager.UsageLog(s.db).UserUsage(ctx)
	if err != nil {
		s.log.Error(ctx, "user api usage", "error", err)
		return nil, common.ErrorInternal
	}
	if usage == nil {
		usage = []models.UserAPIUsage{}
	}
	return usage, nil
}

func (s *AdminService) storageError(ctx context.Context, op string, userID int64, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	s.log.Error(ctx, op, "user_id", userID, "error", err)
	return common.ErrorInternal
}
