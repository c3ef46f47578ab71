package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/validation"
)

// statusAndMessage maps a service error onto an HTTP status and the text
// shown to the client. Unknown errors become a generic 500 so storage and
// upstream details never reach the response.
func statusAndMessage(err error) (int, string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, common.ErrInvalidEmail):
		return http.StatusBadRequest, "Invalid email format."
	case errors.Is(err, common.ErrInvalidPassword):
		return http.StatusBadRequest, "Invalid password."
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, common.ErrorUnauthenticated):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, common.ErrQuotaExhausted):
		return http.StatusForbidden, "No remaining free API calls"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, common.ErrEmailTaken):
		return http.StatusConflict, "Email already in use."
	case errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway, "Card generation service unavailable"
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

// validationMessage strips the sentinel prefix from a wrapped ErrValidation.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": ")
	if msg == "" || msg == common.ErrValidation.Error() {
		return "Invalid request"
	}
	return msg
}
