// Package usagelog stores the append-only api_usage_log table and the
// aggregations behind the admin analytics endpoints.
package usagelog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/flippy/internal/dbx"
	"github.com/dmitrijs2005/flippy/internal/server/models"
)

// NoAPIKey is reported for users without an active key.
const NoAPIKey = "N/A"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, e *models.UsageLogEntry) error {
	query :=
		`INSERT INTO api_usage_log (user_id, method, endpoint, status_code, response_time_ms, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	var userID sql.NullInt64
	if e.UserID != nil {
		userID = sql.NullInt64{Int64: *e.UserID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, userID, e.Method, e.Endpoint, e.StatusCode, e.ResponseTimeMs, e.IPAddress)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// EndpointStats aggregates the log per (method, endpoint), busiest first.
func (r *PostgresRepository) EndpointStats(ctx context.Context) ([]models.EndpointStat, error) {
	query :=
		`SELECT method, endpoint, COUNT(*) AS request_count,
		        COALESCE(AVG(response_time_ms), 0)::float8 AS avg_response_time,
		        MAX(created_at) AS last_request
		 FROM api_usage_log
		 GROUP BY method, endpoint
		 ORDER BY request_count DESC, method, endpoint`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.EndpointStat
	for rows.Next() {
		var s models.EndpointStat
		if err := rows.Scan(&s.Method, &s.Endpoint, &s.RequestCount, &s.AvgResponseTime, &s.LastRequest); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// UserUsage reports request totals per user together with the newest
// active API key, or NoAPIKey.
func (r *PostgresRepository) UserUsage(ctx context.Context) ([]models.UserAPIUsage, error) {
	query :=
		`SELECT u.id, u.email, u.role, u.remaining_api_calls,
		        COUNT(l.id) AS total_requests,
		        COALESCE(k.api_key, u.api_key, $1) AS api_key
		 FROM users u
		 LEFT JOIN api_usage_log l ON l.user_id = u.id
		 LEFT JOIN LATERAL (
		     SELECT api_key FROM api_keys
		     WHERE user_id = u.id AND is_active
		     ORDER BY created_at DESC, id DESC
		     LIMIT 1
		 ) k ON TRUE
		 GROUP BY u.id, k.api_key
		 ORDER BY total_requests DESC, u.id`

	rows, err := r.db.QueryContext(ctx, query, NoAPIKey)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.UserAPIUsage
	for rows.Next() {
		var u models.UserAPIUsage
		if err := rows.Scan(&u.UserID, &u.Email, &u.Role, &u.RemainingAPICalls, &u.TotalRequests, &u.APIKey); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
