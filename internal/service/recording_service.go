package service

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/rs/zerolog"

	"github.com/speechflow/backend/internal/client"
	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/repository"
)

// User-facing feedback persisted on failed analyses. The 400 message covers
// the engine's language-mismatch rejection; everything else gets the generic
// retry guidance.
const (
	LanguageMismatchFeedback = "Please speak in English. Other languages are not accepted."
	GenericFailureFeedback   = "Analysis could not be completed. Please try again."
)

// Analyzer is the outbound contract to the speech analysis engine.
type Analyzer interface {
	Analyze(ctx context.Context, audioPath, level, category, title, originalFilename string) (*client.AnalysisResponse, error)
}

// SubmitRecordingResult pairs the refreshed session tree with the result
// row written for this submission.
type SubmitRecordingResult struct {
	Session *repository.SessionDetail  `json:"session"`
	Result  *repository.PracticeResult `json:"result"`
}

// RecordingService orchestrates recording intake: ownership checks, the
// analysis call, and the atomic result/session write.
type RecordingService struct {
	sessions repository.SessionRepository
	catalog  repository.CatalogRepository
	analyzer Analyzer
	log      zerolog.Logger
}

// NewRecordingService creates a new RecordingService.
func NewRecordingService(
	sessions repository.SessionRepository,
	catalog repository.CatalogRepository,
	analyzer Analyzer,
	log zerolog.Logger,
) *RecordingService {
	return &RecordingService{
		sessions: sessions,
		catalog:  catalog,
		analyzer: analyzer,
		log:      log,
	}
}

// SubmitRecording runs the full intake flow for one uploaded recording.
// An analysis failure is absorbed into a failed-status session with stored
// feedback; only missing/foreign sessions, missing challenges, repeated
// submissions, and store failures surface as errors.
func (s *RecordingService) SubmitRecording(ctx context.Context, userID, sessionID int64, audioPath, originalFilename string) (*SubmitRecordingResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, errors.InternalWrap("failed to load practice session", err)
	}
	if session == nil {
		return nil, errors.NotFound("practice session")
	}

	if session.UserID != userID {
		return nil, errors.Forbidden("practice session does not belong to the authenticated user")
	}

	if session.Finalized() {
		return nil, errors.Conflict("practice session already has a result")
	}

	challenge, err := s.catalog.GetChallenge(ctx, session.ChallengeID)
	if err != nil {
		return nil, errors.InternalWrap("failed to load challenge", err)
	}
	if challenge == nil {
		return nil, errors.NotFound("challenge")
	}

	var levelName, categoryName string
	if challenge.Level != nil {
		levelName = challenge.Level.Name
	}
	if challenge.Category != nil {
		categoryName = challenge.Category.Name
	}

	var (
		transcription string
		feedback      string
		score         float64
		improvedText  *string
		metadata      map[string]interface{}
		status        string
	)

	analysis, err := s.analyzer.Analyze(ctx, audioPath, levelName, categoryName, challenge.Title, originalFilename)
	switch {
	case err == nil:
		transcription = analysis.Text
		feedback = BuildFeedback(analysis)
		score = analysis.ConfidenceScore
		improvedText = analysis.ImprovedText
		metadata = BuildMetadata(analysis)
		status = repository.StatusProcessed

	default:
		var analysisErr *errors.AnalysisError
		if stderrors.As(err, &analysisErr) {
			s.log.Error().
				Int64("session_id", session.ID).
				Int("http_status", analysisErr.HTTPStatus).
				Str("error", analysisErr.Error()).
				Msg("Speech analysis failed")

			if analysisErr.HTTPStatus == 400 {
				feedback = LanguageMismatchFeedback
			} else {
				feedback = GenericFailureFeedback
			}
		} else {
			s.log.Error().
				Int64("session_id", session.ID).
				Err(err).
				Msg("Speech analysis failed")

			feedback = GenericFailureFeedback
		}

		metadata = map[string]interface{}{"error": err.Error()}
		status = repository.StatusFailed
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.InternalWrap("failed to encode result metadata", err)
	}

	result := &repository.PracticeResult{
		Transcription: transcription,
		Feedback:      feedback,
		ImprovedText:  improvedText,
		Score:         score,
		Metadata:      metadataJSON,
	}

	if _, err := s.sessions.Finalize(ctx, session.ID, status, result); err != nil {
		return nil, errors.InternalWrap("failed to persist analysis result", err)
	}

	detail, err := s.sessions.GetDetail(ctx, session.ID)
	if err != nil {
		return nil, errors.InternalWrap("failed to reload practice session", err)
	}

	return &SubmitRecordingResult{Session: detail, Result: result}, nil
}
