package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/Harshitk-cp/bdicore/internal/perception"
	"github.com/Harshitk-cp/bdicore/internal/service"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service and domain errors to HTTP statuses. Anything
// unrecognized is a 500 with a generic message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrAgentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAgentConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoStore):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, perception.ErrBufferFull):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrBeliefRevision), errors.Is(err, domain.ErrReasoning):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrGoalNotAchievable), errors.Is(err, domain.ErrPlanningFailed):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
			"kind":  domain.ErrorKind(err),
		})
	case errors.Is(err, domain.ErrCollaborator):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
