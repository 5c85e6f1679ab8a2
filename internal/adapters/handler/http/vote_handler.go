package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
	reports ports.ReportService
}

func NewVoteHandler(service ports.VoteService, reports ports.ReportService) *VoteHandler {
	return &VoteHandler{
		service: service,
		reports: reports,
	}
}

// CastVote godoc
// @Summary      Votes for a candidate
// @Description  Each non-admin user can vote once.
// @Tags         votes
// @Produce      json
// @Param        candidateID  path      string  true  "Candidate ID"
// @Success      200          {object}  messageResponse
// @Failure      401          {object}  errorResponse
// @Failure      403          {object}  errorResponse  "Admin can not vote"
// @Failure      404          {object}  errorResponse
// @Failure      409          {object}  errorResponse  "User already voted"
// @Failure      500          {object}  errorResponse
// @Router       /api/candidates/vote/{candidateID} [post]
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.KindUnauthenticated, "Unauthorized: missing user context")
		return
	}

	input := ports.VoteInput{
		CandidateID: chi.URLParam(r, "candidateID"),
		VoterID:     userID,
	}
	if err := h.service.CastVote(r.Context(), input); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Vote recorded successfully"})
}

// VoteCount godoc
// @Summary      Vote count per party
// @Description  Parties ordered by votes, highest first.
// @Tags         votes
// @Produce      json
// @Success      200  {array}   domain.PartyTally
// @Failure      500  {object}  errorResponse
// @Router       /api/candidates/vote/count [get]
func (h *VoteHandler) VoteCount(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Report(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
