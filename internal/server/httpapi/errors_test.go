package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/validation"
	"github.com/stretchr/testify/assert"
)

func TestStatusAndMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation struct", &validation.Error{Message: "name is required"}, http.StatusBadRequest, "name is required"},
		{"wrapped validation", fmt.Errorf("%w: %s", common.ErrValidation, "No update parameters provided"), http.StatusBadRequest, "No update parameters provided"},
		{"bare validation", common.ErrValidation, http.StatusBadRequest, "Invalid request"},
		{"invalid email", common.ErrInvalidEmail, http.StatusBadRequest, "Invalid email format."},
		{"credentials", common.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password."},
		{"unauthenticated", common.ErrorUnauthenticated, http.StatusUnauthorized, "Not authenticated"},
		{"unauthorized", common.ErrorUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", common.ErrorForbidden, http.StatusForbidden, "Forbidden"},
		{"quota", common.ErrQuotaExhausted, http.StatusForbidden, "No remaining free API calls"},
		{"not found", common.ErrorNotFound, http.StatusNotFound, "Not found"},
		{"email taken", common.ErrEmailTaken, http.StatusConflict, "Email already in use."},
		{"upstream", fmt.Errorf("%w: %w", common.ErrUpstream, errors.New("dial tcp")), http.StatusBadGateway, "Card generation service unavailable"},
		{"internal", common.ErrorInternal, http.StatusInternalServerError, "Server error"},
		{"unknown", errors.New("pq: relation does not exist"), http.StatusInternalServerError, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := statusAndMessage(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}
