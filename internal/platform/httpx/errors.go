package httpx

import (
	"errors"
	"net/http"

	"github.com/makerhall/makerhall/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// "Who are you" (401) and "you may not" (403) stay distinct so clients and
// tests can tell an anonymous caller apart from an underprivileged one.
func RespondError(w http.ResponseWriter, err error) {
	var invalid *shared.InvalidInputError
	var dbErr *shared.DatabaseError
	switch {
	case errors.Is(err, shared.ErrUnauthenticated), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrForbidden), errors.Is(err, shared.ErrNotProvisioned):
		Problem(w, http.StatusForbidden, "Forbidden", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", shared.UserSafeMessage(err))
	case errors.As(err, &invalid):
		Problem(w, http.StatusBadRequest, "Validation Failed", invalid.Error())
	case errors.As(err, &dbErr):
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
