package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

// writeDomainError maps err to a status code and a client-facing message.
func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindValidation:
		writeError(w, http.StatusBadRequest, kind, err.Error())
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, kind, notFoundMessage(err))
	case domain.KindUnauthenticated:
		writeError(w, http.StatusUnauthorized, kind, "Authentication failed")
	case domain.KindUnauthorized:
		writeError(w, http.StatusForbidden, kind, "User has no admin rights")
	case domain.KindAlreadyVoted:
		writeError(w, http.StatusConflict, kind, "User already voted")
	case domain.KindAdminCannotVote:
		writeError(w, http.StatusForbidden, kind, "Admin can not vote")
	case domain.KindStoreUnavailable:
		writeError(w, http.StatusInternalServerError, kind, "internal server error")
	default:
		writeError(w, http.StatusInternalServerError, domain.KindInternal, "internal server error")
	}
}

func notFoundMessage(err error) string {
	if errors.Is(err, domain.ErrUserNotFound) {
		return "User not found"
	}
	return "Candidate not found"
}
