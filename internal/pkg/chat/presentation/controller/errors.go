package controller

import (
	"errors"
	"net/http"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	"hopaba-chat/internal/pkg/chat/application/usecase"
)

// statusForError maps domain and use-case errors to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, chat.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, chat.ErrPermissionDenied), errors.Is(err, chat.ErrRoleMismatch):
		return http.StatusForbidden
	case errors.Is(err, chat.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrPersistence), errors.Is(err, chat.ErrCascadeDeleteFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
