package http

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/speechflow/backend/internal/client"
	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/middleware"
	"github.com/speechflow/backend/internal/service"
	"github.com/speechflow/backend/pkg/response"
)

// maxRecordingBytes caps recording uploads at 10 MB.
const maxRecordingBytes = 10 << 20

// RecordingHandler handles the recording upload endpoint.
type RecordingHandler struct {
	log              zerolog.Logger
	recordingService *service.RecordingService
	storage          *client.StorageClient
}

// NewRecordingHandler creates a new RecordingHandler.
func NewRecordingHandler(log zerolog.Logger, recordingService *service.RecordingService, storage *client.StorageClient) *RecordingHandler {
	return &RecordingHandler{
		log:              log,
		recordingService: recordingService,
		storage:          storage,
	}
}

// Store handles POST /api/v1/recordings
//
// Request: multipart/form-data with "practice_session_id" and "audio" fields.
// Validation (format, size, field presence) answers 422; everything past
// validation yields a persisted session/result pair, analysis failures
// included.
func (h *RecordingHandler) Store(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxRecordingBytes+(1<<20))
	if err := r.ParseMultipartForm(maxRecordingBytes); err != nil {
		response.UnprocessableEntity(w, "failed to parse multipart form")
		return
	}

	sessionID, err := strconv.ParseInt(r.FormValue("practice_session_id"), 10, 64)
	if err != nil {
		response.UnprocessableEntity(w, "practice_session_id is required")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		response.UnprocessableEntity(w, "audio is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".mp3", ".wav", ".m4a":
	default:
		response.UnprocessableEntity(w, "audio must be an mp3, wav, or m4a file")
		return
	}
	if header.Size > maxRecordingBytes {
		response.UnprocessableEntity(w, "audio must not exceed 10 MB")
		return
	}

	audioData, err := io.ReadAll(file)
	if err != nil {
		response.UnprocessableEntity(w, "failed to read audio file")
		return
	}

	// The analysis client reads from disk, so spool the upload to a temp
	// file for the duration of the request.
	tmp, err := os.CreateTemp("", "recording-*"+ext)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create temp file for recording")
		response.InternalError(w, "failed to store uploaded audio")
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(audioData); err != nil {
		tmp.Close()
		h.log.Error().Err(err).Msg("Failed to spool recording")
		response.InternalError(w, "failed to store uploaded audio")
		return
	}
	tmp.Close()

	h.archive(r, user.ID, sessionID, ext, audioData)

	result, err := h.recordingService.SubmitRecording(r.Context(), user.ID, sessionID, tmp.Name(), header.Filename)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// archive keeps the raw audio in object storage. Best effort: a storage
// failure must not block analysis.
func (h *RecordingHandler) archive(r *http.Request, userID, sessionID int64, ext string, audioData []byte) {
	if h.storage == nil {
		return
	}

	key := fmt.Sprintf("recordings/%d/%d-%d%s", userID, sessionID, time.Now().Unix(), ext)
	if _, err := h.storage.Upload(r.Context(), key, audioData, audioContentType(ext)); err != nil {
		h.log.Warn().
			Err(err).
			Int64("session_id", sessionID).
			Str("key", key).
			Msg("Failed to archive recording")
	}
}

func audioContentType(ext string) string {
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}

func (h *RecordingHandler) handleError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(w, appErr.HTTPStatus(), appErr)
		return
	}
	h.log.Error().Err(err).Msg("Internal server error")
	response.InternalError(w, "internal server error")
}
