package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/flippy/internal/dbx"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/apikeys"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/cardgroups"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/cards"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/usagelog"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	CardGroups(db dbx.DBTX) cardgroups.Repository
	Cards(db dbx.DBTX) cards.Repository
	UsageLog(db dbx.DBTX) usagelog.Repository
	APIKeys(db dbx.DBTX) apikeys.Repository
}
