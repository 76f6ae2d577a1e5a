package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/middleware"
	"github.com/speechflow/backend/internal/service"
	"github.com/speechflow/backend/pkg/response"
)

// SessionHandler handles practice session endpoints.
type SessionHandler struct {
	log            zerolog.Logger
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(log zerolog.Logger, sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		log:            log,
		sessionService: sessionService,
	}
}

// Start handles POST /api/v1/practice-sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req service.StartSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.UnprocessableEntity(w, "invalid request body")
		return
	}
	if req.ChallengeID == 0 {
		response.UnprocessableEntity(w, "challenge_id is required")
		return
	}

	session, err := h.sessionService.Start(r.Context(), user.ID, req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, session)
}

// List handles GET /api/v1/practice-sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	sessions, err := h.sessionService.List(r.Context(), user.ID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, sessions)
}

// Get handles GET /api/v1/practice-sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.NotFound(w, "practice session not found")
		return
	}

	session, err := h.sessionService.Get(r.Context(), user.ID, id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, session)
}

func (h *SessionHandler) handleError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(w, appErr.HTTPStatus(), appErr)
		return
	}
	h.log.Error().Err(err).Msg("Internal server error")
	response.InternalError(w, "internal server error")
}
