package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/view"
)

// statusFor maps service errors onto HTTP. Anything unknown is a 500 whose
// details stay in the log.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSpaceNotFound):
		return http.StatusNotFound, "space not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, view.ErrInvalidCursor):
		return http.StatusBadRequest, "invalid_cursor"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrBanned):
		return http.StatusForbidden, "banned"
	case errors.Is(err, domain.ErrSpaceFull):
		return http.StatusConflict, "space full"
	case errors.Is(err, domain.ErrSpaceEnded):
		return http.StatusConflict, "space ended"
	case errors.Is(err, domain.ErrNotParticipant):
		return http.StatusConflict, "not a participant"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "invalid state"
	default:
		return http.StatusInternalServerError, "service error"
	}
}

func writeError(w http.ResponseWriter, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("handler."+op+":", slog.Any("err", err))
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}
