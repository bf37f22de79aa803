package handler

import (
	"codecollab/internal/app/service"
	"codecollab/internal/common"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ChallengeHandler struct {
	challengeService   ChallengeService
	submissionService  SubmissionService
	leaderboardService LeaderboardService
}

func NewChallengeHandler(cs ChallengeService, ss SubmissionService, ls LeaderboardService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService:   cs,
		submissionService:  ss,
		leaderboardService: ls,
	}
}

func (h *ChallengeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listChallenges)
	r.Post("/", h.createChallenge)
	r.Route("/{challengeID}", func(r chi.Router) {
		r.Get("/", h.getChallenge)
		r.Put("/", h.updateChallenge)
		r.Patch("/", h.updateChallenge)
		r.Delete("/", h.deleteChallenge)
		r.Post("/submit", h.submit)
		r.Get("/leaderboard", h.leaderboard)
		r.Get("/leaderboard/export", h.exportLeaderboard)
		r.Get("/statistics", h.statistics)
	})
}

func (h *ChallengeHandler) listChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.challengeService.ListOpen(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) createChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req service.CreateChallengeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}

	challenge, err := h.challengeService.Create(r.Context(), userID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Challenge created successfully",
		"challenge": challenge,
	})
}

func (h *ChallengeHandler) getChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	detail, err := h.challengeService.Get(r.Context(), userID, chi.URLParam(r, "challengeID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *ChallengeHandler) updateChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req service.UpdateChallengeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}

	challenge, err := h.challengeService.Update(r.Context(), userID, chi.URLParam(r, "challengeID"), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Challenge updated successfully",
		"challenge": challenge,
	})
}

func (h *ChallengeHandler) deleteChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := h.challengeService.Delete(r.Context(), userID, chi.URLParam(r, "challengeID")); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Challenge deleted successfully")
}

func (h *ChallengeHandler) submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req service.SubmitRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}

	result, err := h.submissionService.Submit(r.Context(), userID, chi.URLParam(r, "challengeID"), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Solution submitted successfully",
		"score":          result.Score,
		"completed":      result.Completed,
		"points_awarded": result.PointsAwarded,
	})
}

func (h *ChallengeHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboardService.Leaderboard(r.Context(), chi.URLParam(r, "challengeID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *ChallengeHandler) statistics(w http.ResponseWriter, r *http.Request) {
	result, err := h.leaderboardService.Statistics(r.Context(), chi.URLParam(r, "challengeID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ChallengeHandler) exportLeaderboard(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "challengeID")
	buf, err := h.leaderboardService.Export(r.Context(), challengeID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard-`+challengeID+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
