package models

import "time"

type APIKey struct {
	ID        int64
	UserID    int64
	Key       string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}
