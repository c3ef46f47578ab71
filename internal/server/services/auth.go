// Package services contains server-side business logic. This file implements
// AuthService: account creation, password sign-in backed by the session
// registry, and admin re-authentication.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/flippy/internal/server/sessions"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email looks like local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// SignInResult is returned by a successful SignIn.
type SignInResult struct {
	UserID    int64
	Email     string
	Role      string
	Token     string
	ExpiresAt time.Time
}

// Profile is what a user may see about their own account.
type Profile struct {
	Email             string
	Role              string
	RemainingAPICalls int
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *sessions.Registry
	bcryptCost  int
	dummyHash   []byte
	log         logging.Logger
}

// NewAuthService constructs an AuthService. bcryptCost below bcrypt.MinCost
// is raised to bcrypt.DefaultCost.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, reg *sessions.Registry, bcryptCost int, log logging.Logger) (*AuthService, error) {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}

	// compared against when the email is unknown so both paths cost one bcrypt
	dummy, err := bcrypt.GenerateFromPassword([]byte("flippy-timing-equalizer"), bcryptCost)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		db:          db,
		repomanager: m,
		sessions:    reg,
		bcryptCost:  bcryptCost,
		dummyHash:   dummy,
		log:         log.With("service", "auth"),
	}, nil
}

// SignUp creates a user with role user and the default quota. Uniqueness
// is enforced by the database, so concurrent signups for one email yield
// exactly one account.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (int64, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return 0, common.ErrInvalidEmail
	}
	if password == "" {
		return 0, common.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, common.ErrInvalidPassword
		}
		s.log.Error(ctx, "hash password", "error", err)
		return 0, common.ErrorInternal
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{Email: email, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return 0, common.ErrEmailTaken
		}
		s.log.Error(ctx, "create user", "email", email, "error", err)
		return 0, common.ErrorInternal
	}

	s.log.Info(ctx, "user signed up", "user_id", u.ID)
	return u.ID, nil
}

// SignIn verifies credentials and opens a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = strings.TrimSpace(email)

	u, err := s.verifyPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create(u.ID, u.Email)
	if err != nil {
		s.log.Error(ctx, "create session", "user_id", u.ID, "error", err)
		return nil, common.ErrorInternal
	}

	return &SignInResult{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

func (s *AuthService) SignOut(token string) {
	s.sessions.Destroy(token)
}

// AuthorizeAdmin re-verifies an admin's credentials for a privileged
// operation. Every failure is reported as common.ErrorUnauthorized; the
// concrete reason is only logged.
func (s *AuthService) AuthorizeAdmin(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.verifyPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		if errors.Is(err, common.ErrorInternal) {
			return nil, err
		}
		s.log.Warn(ctx, "admin re-authentication failed", "email", email, "reason", "bad credentials")
		return nil, common.ErrorUnauthorized
	}
	if !u.IsAdmin() {
		s.log.Warn(ctx, "admin re-authentication failed", "email", email, "reason", "not an admin")
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}

// CurrentUser loads the user behind a session. A session whose user was
// deleted is treated as unauthenticated.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		s.log.Error(ctx, "load user", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}
	return u, nil
}

// GetProfile returns the caller's own account summary.
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{Email: u.Email, Role: u.Role, RemainingAPICalls: u.RemainingAPICalls}, nil
}

// BootstrapAdmin creates an admin account, or promotes an existing account
// after checking its password. It reports whether a new account was made.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password string) (int64, bool, error) {
	email = strings.TrimSpace(email)
	repo := s.repomanager.Users(s.db)

	created := false
	id, err := s.SignUp(ctx, email, password)
	switch {
	case err == nil:
		created = true
	case errors.Is(err, common.ErrEmailTaken):
		u, verr := s.verifyPassword(ctx, email, password)
		if verr != nil {
			return 0, false, verr
		}
		id = u.ID
	default:
		return 0, false, err
	}

	role := common.RoleAdmin
	if err := repo.Update(ctx, id, models.UserUpdate{Role: &role}); err != nil {
		return 0, false, fmt.Errorf("promote user %d: %w", id, err)
	}
	return id, created, nil
}

func (s *AuthService) verifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "load user by email", "error", err)
		return nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}
	return u, nil
}
