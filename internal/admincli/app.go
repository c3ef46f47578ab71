// Package admincli implements flippy-admin, which creates or promotes an
// administrator account directly in the database. Roles can otherwise only
// be granted by an existing admin, so the first one has to come from here.
package admincli

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/flippy/internal/flagx"
	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/config"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/flippy/internal/server/services"
	"github.com/dmitrijs2005/flippy/internal/server/sessions"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var errPasswordMismatch = errors.New("passwords do not match")

// seams for tests
var (
	openDB               = sql.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	loadConfig           = config.LoadConfig
)

type App struct {
	in  *bufio.Reader
	out io.Writer
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{in: bufio.NewReader(in), out: out}
}

// emailFlag returns -email from args, or "".
func emailFlag(args []string) (string, error) {
	var email string
	fs := flag.NewFlagSet("flippy-admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&email, "email", "", "admin account email")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "--email"})); err != nil {
		return "", err
	}
	return email, nil
}

// Run reads the email (from -email or a prompt) and a confirmed password,
// then creates or promotes the account. Database settings come from the
// same sources as the server's.
func (a *App) Run(ctx context.Context, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	email, err := emailFlag(args)
	if err != nil {
		return err
	}
	if email == "" {
		if email, err = GetSimpleText(a.in, "Enter admin email", a.out); err != nil {
			return err
		}
	}

	password, err := GetPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	confirm, err := GetPassword(a.out, "Repeat password")
	if err != nil {
		return err
	}
	if !bytes.Equal(password, confirm) {
		return errPasswordMismatch
	}

	db, err := openDB("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	auth, err := services.NewAuthService(db, rm, sessions.NewRegistry(), cfg.BcryptCost, logger)
	if err != nil {
		return err
	}

	id, created, err := auth.BootstrapAdmin(ctx, email, string(password))
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(a.out, "Created admin %s (id %d)\n", email, id)
	} else {
		fmt.Fprintf(a.out, "Promoted %s (id %d) to admin\n", email, id)
	}
	return nil
}
