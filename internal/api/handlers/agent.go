package handlers

import (
	"io"
	"net/http"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/Harshitk-cp/bdicore/internal/domainfile"
	"github.com/Harshitk-cp/bdicore/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AgentHandler struct {
	svc *service.AgentService
}

func NewAgentHandler(svc *service.AgentService) *AgentHandler {
	return &AgentHandler{svc: svc}
}

// Create hosts an agent described by a JSON domain document.
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := domainfile.Parse(body, domainfile.FormatJSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.svc.Create(r.Context(), doc.Snapshot())
	if err != nil {
		writeServiceError(w, err, "failed to create agent")
		return
	}

	writeJSON(w, http.StatusCreated, status)
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	agents := h.svc.List()
	if agents == nil {
		agents = []service.AgentStatus{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

func (h *AgentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(w, r)
	if !ok {
		return
	}

	status, err := h.svc.Get(id)
	if err != nil {
		writeServiceError(w, err, "failed to get agent")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete agent")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AgentHandler) Beliefs(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(w, r)
	if !ok {
		return
	}

	beliefs, err := h.svc.Beliefs(id)
	if err != nil {
		writeServiceError(w, err, "failed to get beliefs")
		return
	}
	if beliefs == nil {
		beliefs = []domain.BeliefRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"beliefs": beliefs})
}

type perceptsRequest struct {
	Updates []domain.BeliefUpdate `json:"updates"`
}

// Perceive queues belief updates for the agent's next tick.
func (h *AgentHandler) Perceive(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(w, r)
	if !ok {
		return
	}

	var req perceptsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Updates) == 0 {
		writeError(w, http.StatusBadRequest, "updates are required")
		return
	}

	if err := h.svc.Perceive(id, req.Updates); err != nil {
		writeServiceError(w, err, "failed to queue percepts")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]int{"queued": len(req.Updates)})
}

func (h *AgentHandler) AddDesire(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(w, r)
	if !ok {
		return
	}

	var req domain.DesireRecord
	if !decodeJSON(w, r, &req) {
		return
	}

	desire, err := h.svc.AddDesire(id, req)
	if err != nil {
		if _, lookupErr := h.svc.Get(id); lookupErr != nil {
			writeServiceError(w, lookupErr, "failed to add desire")
			return
		}
		// the agent exists, so the record itself is malformed
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, desire)
}

func (h *AgentHandler) Tick(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(w, r)
	if !ok {
		return
	}

	report, err := h.svc.Tick(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to tick agent")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type planResponse struct {
	Goal    string   `json:"goal"`
	Actions []string `json:"actions"`
	Length  int      `json:"length"`
}

// Plan runs the planner for the posted goal without adopting the result.
func (h *AgentHandler) Plan(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(w, r)
	if !ok {
		return
	}

	var req domain.GoalRecord
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := domain.GoalFromRecord(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.svc.Plan(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err, "failed to plan")
		return
	}

	writeJSON(w, http.StatusOK, planResponse{
		Goal:    plan.Name(),
		Actions: plan.ActionNames(),
		Length:  plan.Len(),
	})
}

// Snapshot persists the agent and returns the stored snapshot.
func (h *AgentHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(w, r)
	if !ok {
		return
	}

	snap, err := h.svc.Save(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to save agent")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func agentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return uuid.Nil, false
	}
	return id, true
}
