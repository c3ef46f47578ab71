package models

import "time"

// UsageLogEntry records one handled HTTP request. UserID is nil for
// anonymous callers.
type UsageLogEntry struct {
	UserID         *int64
	Method         string
	Endpoint       string
	StatusCode     int
	ResponseTimeMs int64
	IPAddress      string
	CreatedAt      time.Time
}

// EndpointStat aggregates usage per (method, endpoint).
type EndpointStat struct {
	Method          string
	Endpoint        string
	RequestCount    int64
	AvgResponseTime float64
	LastRequest     time.Time
}

// UserAPIUsage aggregates usage per user for the admin dashboard.
type UserAPIUsage struct {
	UserID            int64
	Email             string
	Role              string
	RemainingAPICalls int
	TotalRequests     int64
	APIKey            string
}
