package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/metrics"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/repomanager"
)

// DefaultUsageWriteTimeout bounds a single usage log insert.
const DefaultUsageWriteTimeout = 5 * time.Second

// UsageLogger appends usage rows in the background. A failed write is
// logged and counted, never returned to the request that caused it.
type UsageLogger struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	timeout     time.Duration
	log         logging.Logger
	wg          sync.WaitGroup
}

func NewUsageLogger(db *sql.DB, m repomanager.RepositoryManager, timeout time.Duration, log logging.Logger) *UsageLogger {
	if timeout <= 0 {
		timeout = DefaultUsageWriteTimeout
	}
	return &UsageLogger{
		db:          db,
		repomanager: m,
		timeout:     timeout,
		log:         log.With("service", "usage"),
	}
}

// Record schedules entry for insertion and returns immediately. The write
// runs on its own context so it survives the end of the request.
func (u *UsageLogger) Record(entry models.UsageLogEntry) {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
		defer cancel()

		if err := u.repomanager.UsageLog(u.db).Insert(ctx, &entry); err != nil {
			metrics.UsageLogFailures.Inc()
			u.log.Warn(ctx, "write usage log", "method", entry.Method, "endpoint", entry.Endpoint, "error", err)
		}
	}()
}

// Wait blocks until every scheduled write has finished.
func (u *UsageLogger) Wait() {
	u.wg.Wait()
}
