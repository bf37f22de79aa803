package handler

import (
	"codecollab/internal/app/service"
	"codecollab/internal/common"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type CodingSessionHandler struct {
	sessionService CodingSessionService
	stream         SessionStream
}

func NewCodingSessionHandler(ss CodingSessionService, stream SessionStream) *CodingSessionHandler {
	return &CodingSessionHandler{sessionService: ss, stream: stream}
}

// RegisterProjectRoutes mounts the routes nested under /projects/{projectID}.
func (h *CodingSessionHandler) RegisterProjectRoutes(r chi.Router) {
	r.Get("/", h.listSessions)
	r.Post("/", h.createSession)
}

func (h *CodingSessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Put("/", h.updateSession)
		r.Patch("/", h.updateSession)
		r.Delete("/", h.deleteSession)
		r.Post("/join", h.join)
		r.Post("/leave", h.leave)
		r.Post("/update-content", h.updateContent)
		r.Get("/ws", h.streamEvents)
	})
}

func (h *CodingSessionHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	sessions, err := h.sessionService.ListForProject(r.Context(), userID, chi.URLParam(r, "projectID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sessions)
}

func (h *CodingSessionHandler) createSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req service.CreateCodingSessionRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}

	session, err := h.sessionService.Create(r.Context(), userID, chi.URLParam(r, "projectID"), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":        "Coding session created successfully",
		"coding_session": session,
	})
}

func (h *CodingSessionHandler) getSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	session, err := h.sessionService.Get(r.Context(), userID, chi.URLParam(r, "sessionID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, session)
}

func (h *CodingSessionHandler) updateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req service.UpdateCodingSessionRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}

	session, err := h.sessionService.Update(r.Context(), userID, chi.URLParam(r, "sessionID"), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Coding session updated successfully",
		"coding_session": session,
	})
}

func (h *CodingSessionHandler) deleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := h.sessionService.Delete(r.Context(), userID, chi.URLParam(r, "sessionID")); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Coding session deleted successfully")
}

func (h *CodingSessionHandler) join(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	session, err := h.sessionService.Join(r.Context(), userID, chi.URLParam(r, "sessionID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Joined coding session successfully",
		"coding_session": session,
	})
}

func (h *CodingSessionHandler) leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := h.sessionService.Leave(r.Context(), userID, chi.URLParam(r, "sessionID")); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Left coding session successfully")
}

func (h *CodingSessionHandler) updateContent(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req service.UpdateContentRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}

	session, err := h.sessionService.UpdateContent(r.Context(), userID, chi.URLParam(r, "sessionID"), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Content updated successfully",
		"coding_session": session,
	})
}

// streamEvents upgrades to a websocket that receives the session's live events.
func (h *CodingSessionHandler) streamEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.sessionService.AuthorizeStream(r.Context(), userID, sessionID); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	h.stream.ServeSession(w, r, sessionID)
}
