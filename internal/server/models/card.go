package models

import "time"

// CardGroup is a named collection of flashcards owned by one user.
type CardGroup struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	CreatedAt   time.Time
	Cards       []Card
}

// Card belongs to exactly one CardGroup. The explanation fields are either
// all nil or all set; regeneration overwrites them.
type Card struct {
	ID                     int64
	GroupID                int64
	Question               string
	Answer                 string
	ExplanationText        *string
	ExplanationDifficulty  *string
	ExplanationGeneratedAt *time.Time
	CreatedAt              time.Time
}

// CardDraft is a question/answer pair not yet persisted.
type CardDraft struct {
	Question string
	Answer   string
}
