package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type CandidateHandler struct {
	service ports.CandidateService
}

func NewCandidateHandler(service ports.CandidateService) *CandidateHandler {
	return &CandidateHandler{
		service: service,
	}
}

type createCandidateRequest struct {
	Name  string `json:"name"`
	Party string `json:"party"`
	Age   *int   `json:"age,omitempty"`
}

type updateCandidateRequest struct {
	Name  *string `json:"name,omitempty"`
	Party *string `json:"party,omitempty"`
	Age   *int    `json:"age,omitempty"`
}

type createCandidateResponse struct {
	Response *domain.Candidate `json:"response"`
}

type candidateNameResponse struct {
	Name string `json:"name"`
}

// CreateCandidate godoc
// @Summary      Registers a candidate
// @Tags         candidates
// @Accept       json
// @Produce      json
// @Param        candidate  body      createCandidateRequest  true  "Candidate data"
// @Success      200        {object}  createCandidateResponse
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      500        {object}  errorResponse
// @Router       /api/candidates [post]
func (h *CandidateHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req createCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid request body")
		return
	}

	candidate, err := h.service.Create(r.Context(), ports.CreateCandidateInput{
		Name:  req.Name,
		Party: req.Party,
		Age:   req.Age,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createCandidateResponse{Response: candidate})
}

// UpdateCandidate godoc
// @Summary      Updates a candidate
// @Description  Only the fields present in the body are changed.
// @Tags         candidates
// @Accept       json
// @Produce      json
// @Param        candidateID  path      string                  true  "Candidate ID"
// @Param        candidate    body      updateCandidateRequest  true  "Fields to change"
// @Success      200          {object}  domain.Candidate
// @Failure      400          {object}  errorResponse
// @Failure      403          {object}  errorResponse
// @Failure      404          {object}  errorResponse
// @Failure      500          {object}  errorResponse
// @Router       /api/candidates/{candidateID} [put]
func (h *CandidateHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	var req updateCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid request body")
		return
	}

	candidate, err := h.service.Update(r.Context(), chi.URLParam(r, "candidateID"), ports.UpdateCandidateInput{
		Name:  req.Name,
		Party: req.Party,
		Age:   req.Age,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, candidate)
}

// DeleteCandidate godoc
// @Summary      Deletes a candidate
// @Description  Votes already cast for the candidate are removed with it; the voters stay marked as having voted.
// @Tags         candidates
// @Produce      json
// @Param        candidateID  path      string  true  "Candidate ID"
// @Success      200          {object}  messageResponse
// @Failure      403          {object}  errorResponse
// @Failure      404          {object}  errorResponse
// @Failure      500          {object}  errorResponse
// @Router       /api/candidates/{candidateID} [delete]
func (h *CandidateHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "candidateID")); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Candidate deleted successfully"})
}

// GetCandidateName godoc
// @Summary      Returns a candidate's name
// @Tags         candidates
// @Produce      json
// @Param        candidateID  path      string  true  "Candidate ID"
// @Success      200          {object}  candidateNameResponse
// @Failure      404          {object}  errorResponse
// @Failure      500          {object}  errorResponse
// @Router       /api/candidates/{candidateID} [get]
func (h *CandidateHandler) GetCandidateName(w http.ResponseWriter, r *http.Request) {
	name, err := h.service.GetName(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, candidateNameResponse{Name: name})
}
