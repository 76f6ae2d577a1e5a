package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/middleware"
	"github.com/speechflow/backend/internal/service"
	"github.com/speechflow/backend/pkg/response"
)

// maxPictureBytes caps profile picture uploads at 5 MB.
const maxPictureBytes = 5 << 20

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	log            zerolog.Logger
	profileService *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(log zerolog.Logger, profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		log:            log,
		profileService: profileService,
	}
}

// Show handles GET /api/v1/profile
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	profile, err := h.profileService.Get(r.Context(), user)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, profile)
}

// Update handles PUT /api/v1/profile (multipart, all fields optional)
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(maxPictureBytes); err != nil {
		response.UnprocessableEntity(w, "failed to parse multipart form")
		return
	}

	var req service.UpdateProfileReq
	if name, ok := formValue(r, "name"); ok {
		req.Name = &name
	}
	if bio, ok := formValue(r, "bio"); ok {
		req.Bio = &bio
	}
	if goals, ok := formValue(r, "speaking_goals"); ok {
		if !json.Valid([]byte(goals)) {
			response.UnprocessableEntity(w, "speaking_goals must be valid JSON")
			return
		}
		req.SpeakingGoals = json.RawMessage(goals)
	}
	if prefs, ok := formValue(r, "notification_preferences"); ok {
		if !json.Valid([]byte(prefs)) {
			response.UnprocessableEntity(w, "notification_preferences must be valid JSON")
			return
		}
		req.NotificationPreferences = json.RawMessage(prefs)
	}

	if file, header, err := r.FormFile("profile_picture"); err == nil {
		defer file.Close()
		if header.Size > maxPictureBytes {
			response.UnprocessableEntity(w, "profile picture must not exceed 5 MB")
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			response.UnprocessableEntity(w, "failed to read profile picture")
			return
		}
		req.PictureData = data
		req.PictureFilename = header.Filename
	}

	updated, err := h.profileService.Update(r.Context(), user, req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, updated)
}

// History handles GET /api/v1/profile/history
func (h *ProfileHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	sessions, err := h.profileService.History(r.Context(), user.ID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, sessions)
}

// Share handles POST /api/v1/profile/share
func (h *ProfileHandler) Share(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	summary, err := h.profileService.ShareSummary(r.Context(), user)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// Delete handles DELETE /api/v1/profile
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.UnprocessableEntity(w, "invalid request body")
		return
	}

	if err := h.profileService.DeleteAccount(r.Context(), user, req.Password); err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

func formValue(r *http.Request, key string) (string, bool) {
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (h *ProfileHandler) handleError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(w, appErr.HTTPStatus(), appErr)
		return
	}
	h.log.Error().Err(err).Msg("Internal server error")
	response.InternalError(w, "internal server error")
}
