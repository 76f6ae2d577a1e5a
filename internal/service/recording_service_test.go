package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechflow/backend/internal/client"
	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/logger"
	"github.com/speechflow/backend/internal/repository"
)

type fakeAnalyzer struct {
	response *client.AnalysisResponse
	err      error

	gotLevel    string
	gotCategory string
	gotTitle    string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, audioPath, level, category, title, originalFilename string) (*client.AnalysisResponse, error) {
	f.gotLevel = level
	f.gotCategory = category
	f.gotTitle = title
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func newRecordingFixture(t *testing.T, analyzer Analyzer) (*RecordingService, *repository.InMemorySessionRepository) {
	t.Helper()

	catalog := repository.NewInMemoryCatalogRepository()
	catalog.Challenges = []*repository.ChallengeDetail{
		{
			Challenge: repository.Challenge{ID: 3, CategoryID: 2, LevelID: 1, Title: "Tell me about yourself.", SuggestedTimeMinutes: 2},
			Category:  &repository.Category{ID: 2, Slug: "interview-behavioral", Name: "Behavioral"},
			Level:     &repository.Level{ID: 1, Slug: "medium", Name: "Medium"},
		},
	}

	sessions := repository.NewInMemorySessionRepository(catalog)
	sessions.Put(&repository.PracticeSession{
		ID:          1,
		UserID:      7,
		ChallengeID: 3,
		Name:        "Tell me about yourself. Practice",
		Status:      repository.StatusStarted,
	})

	return NewRecordingService(sessions, catalog, analyzer, logger.NewNop()), sessions
}

func TestSubmitRecordingSuccess(t *testing.T) {
	analyzer := &fakeAnalyzer{response: sampleAnalysis()}
	svc, sessions := newRecordingFixture(t, analyzer)

	result, err := svc.SubmitRecording(context.Background(), 7, 1, "/tmp/recording.wav", "recording.wav")
	require.NoError(t, err)

	assert.Equal(t, "Medium", analyzer.gotLevel)
	assert.Equal(t, "Behavioral", analyzer.gotCategory)
	assert.Equal(t, "Tell me about yourself.", analyzer.gotTitle)

	require.NotNil(t, result.Result)
	assert.Equal(t, 78.0, result.Result.Score)
	assert.Equal(t, "good morning everyone um so today", result.Result.Transcription)
	assert.Contains(t, result.Result.Feedback, "Overall Rating: Good")

	var metadata map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Result.Metadata, &metadata))
	assert.Equal(t, 3.0, metadata["filler_count"])

	assert.Equal(t, repository.StatusProcessed, result.Session.Status)
	require.NotNil(t, result.Session.CompletedAt)

	stored, err := sessions.GetResult(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, result.Result.ID, stored.ID)
}

func TestSubmitRecordingLanguageMismatch(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.NewAnalysisError(400, `{"detail":"unsupported language"}`)}
	svc, _ := newRecordingFixture(t, analyzer)

	result, err := svc.SubmitRecording(context.Background(), 7, 1, "/tmp/recording.wav", "recording.wav")
	require.NoError(t, err)

	assert.Equal(t, LanguageMismatchFeedback, result.Result.Feedback)
	assert.Equal(t, repository.StatusFailed, result.Session.Status)
	require.NotNil(t, result.Session.CompletedAt)

	var metadata map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Result.Metadata, &metadata))
	assert.Contains(t, metadata["error"], "HTTP 400")
}

func TestSubmitRecordingEngineFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.NewAnalysisError(500, "internal")}
	svc, _ := newRecordingFixture(t, analyzer)

	result, err := svc.SubmitRecording(context.Background(), 7, 1, "/tmp/recording.wav", "recording.wav")
	require.NoError(t, err)

	assert.Equal(t, GenericFailureFeedback, result.Result.Feedback)
	assert.Equal(t, repository.StatusFailed, result.Session.Status)
}

func TestSubmitRecordingTransportFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.NewAnalysisError(errors.TransportFailure, "connection refused")}
	svc, _ := newRecordingFixture(t, analyzer)

	result, err := svc.SubmitRecording(context.Background(), 7, 1, "/tmp/recording.wav", "recording.wav")
	require.NoError(t, err)

	assert.Equal(t, GenericFailureFeedback, result.Result.Feedback)
	assert.Equal(t, repository.StatusFailed, result.Session.Status)
}

func TestSubmitRecordingUnclassifiedError(t *testing.T) {
	analyzer := &fakeAnalyzer{err: stderrors.New("boom")}
	svc, _ := newRecordingFixture(t, analyzer)

	result, err := svc.SubmitRecording(context.Background(), 7, 1, "/tmp/recording.wav", "recording.wav")
	require.NoError(t, err)

	assert.Equal(t, GenericFailureFeedback, result.Result.Feedback)
	assert.Equal(t, repository.StatusFailed, result.Session.Status)

	var metadata map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Result.Metadata, &metadata))
	assert.Equal(t, "boom", metadata["error"])
}

func TestSubmitRecordingSessionNotFound(t *testing.T) {
	svc, _ := newRecordingFixture(t, &fakeAnalyzer{response: sampleAnalysis()})

	_, err := svc.SubmitRecording(context.Background(), 7, 99, "/tmp/recording.wav", "recording.wav")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestSubmitRecordingForeignSession(t *testing.T) {
	svc, sessions := newRecordingFixture(t, &fakeAnalyzer{response: sampleAnalysis()})

	_, err := svc.SubmitRecording(context.Background(), 8, 1, "/tmp/recording.wav", "recording.wav")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	// Nothing was written for the rejected submission.
	stored, err := sessions.GetResult(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSubmitRecordingAlreadyFinalized(t *testing.T) {
	analyzer := &fakeAnalyzer{response: sampleAnalysis()}
	svc, _ := newRecordingFixture(t, analyzer)

	_, err := svc.SubmitRecording(context.Background(), 7, 1, "/tmp/recording.wav", "recording.wav")
	require.NoError(t, err)

	_, err = svc.SubmitRecording(context.Background(), 7, 1, "/tmp/recording.wav", "recording.wav")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrConflict, appErr.Code)
}
