package validation

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Question string `json:"question" validate:"notblank"`
}

type request struct {
	Name       string `json:"name" validate:"notblank,max=255"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Items      []item `json:"cards" validate:"min=1,dive"`
	CardID     int64  `json:"cardId" validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	valid := request{Name: "Biology", Items: []item{{Question: "q"}}, CardID: 1}

	tests := []struct {
		name    string
		mutate  func(r *request)
		field   string
		message string
	}{
		{name: "valid", mutate: func(r *request) {}},
		{name: "blank name", mutate: func(r *request) { r.Name = "   " }, field: "name", message: "name is required"},
		{name: "no cards", mutate: func(r *request) { r.Items = nil }, field: "cards", message: "cards must contain at least 1 item(s)"},
		{name: "blank question", mutate: func(r *request) { r.Items = []item{{Question: ""}} }, field: "question", message: "question is required"},
		{name: "bad difficulty", mutate: func(r *request) { r.Difficulty = "extreme" }, field: "difficulty", message: "difficulty must be one of: easy medium hard"},
		{name: "zero card id", mutate: func(r *request) { r.CardID = 0 }, field: "cardId", message: "cardId must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			r.Items = append([]item(nil), valid.Items...)
			tt.mutate(&r)

			err := Struct(&r)
			if tt.message == "" {
				require.NoError(t, err)
				return
			}

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Field, tt.field)
			assert.Equal(t, tt.message, verr.Message)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}
