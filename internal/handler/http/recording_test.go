package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechflow/backend/internal/client"
	"github.com/speechflow/backend/internal/logger"
	"github.com/speechflow/backend/internal/middleware"
	"github.com/speechflow/backend/internal/repository"
	"github.com/speechflow/backend/internal/service"
)

type stubAnalyzer struct {
	response *client.AnalysisResponse
	err      error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, audioPath, level, category, title, originalFilename string) (*client.AnalysisResponse, error) {
	return s.response, s.err
}

// recordingTestServer wires an authenticated /recordings endpoint over
// in-memory repositories and returns the server plus a valid bearer token.
func recordingTestServer(t *testing.T, analyzer service.Analyzer) (*httptest.Server, string) {
	t.Helper()
	ctx := context.Background()

	users := repository.NewInMemoryUserRepository()
	catalog := repository.NewInMemoryCatalogRepository()
	catalog.Challenges = []*repository.ChallengeDetail{
		{
			Challenge: repository.Challenge{ID: 3, CategoryID: 2, LevelID: 1, Title: "Tell me about yourself."},
			Category:  &repository.Category{ID: 2, Slug: "interview-behavioral", Name: "Behavioral"},
			Level:     &repository.Level{ID: 1, Slug: "medium", Name: "Medium"},
		},
	}
	sessions := repository.NewInMemorySessionRepository(catalog)

	log := logger.NewNop()
	authService := service.NewAuthService(users, nil, "test-secret", log)
	recordingService := service.NewRecordingService(sessions, catalog, analyzer, log)
	handler := NewRecordingHandler(log, recordingService, nil)

	guest, err := authService.CreateGuest(ctx)
	require.NoError(t, err)

	sessions.Put(&repository.PracticeSession{
		ID:          1,
		UserID:      guest.User.ID,
		ChallengeID: 3,
		Status:      repository.StatusStarted,
	})

	mux := http.NewServeMux()
	mux.Handle("/recordings", middleware.Auth(authService)(http.HandlerFunc(handler.Store)))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, guest.Token
}

func multipartRecording(t *testing.T, sessionID, filename string, audio []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if sessionID != "" {
		require.NoError(t, writer.WriteField("practice_session_id", sessionID))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func postRecording(t *testing.T, server *httptest.Server, token string, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, server.URL+"/recordings", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestStoreRecordingSuccess(t *testing.T) {
	analysis := &client.AnalysisResponse{
		Text:            "hello world",
		ConfidenceScore: 78,
		OverallRating:   "Good",
	}
	server, token := recordingTestServer(t, &stubAnalyzer{response: analysis})

	body, contentType := multipartRecording(t, "1", "take1.wav", []byte("wav-bytes"))
	resp := postRecording(t, server, token, body, contentType)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Session struct {
				Status string `json:"status"`
			} `json:"session"`
			Result struct {
				Transcription string  `json:"transcription"`
				Score         float64 `json:"score"`
			} `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "processed", envelope.Data.Session.Status)
	assert.Equal(t, "hello world", envelope.Data.Result.Transcription)
	assert.Equal(t, 78.0, envelope.Data.Result.Score)
}

func TestStoreRecordingValidation(t *testing.T) {
	server, token := recordingTestServer(t, &stubAnalyzer{response: &client.AnalysisResponse{}})

	tests := []struct {
		name      string
		sessionID string
		filename  string
	}{
		{"missing session id", "", "take1.wav"},
		{"missing audio", "1", ""},
		{"unsupported format", "1", "take1.ogg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartRecording(t, tc.sessionID, tc.filename, []byte("audio"))
			resp := postRecording(t, server, token, body, contentType)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

func TestStoreRecordingRequiresAuth(t *testing.T) {
	server, _ := recordingTestServer(t, &stubAnalyzer{response: &client.AnalysisResponse{}})

	body, contentType := multipartRecording(t, "1", "take1.wav", []byte("audio"))
	resp := postRecording(t, server, "", body, contentType)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStoreRecordingConflictOnResubmit(t *testing.T) {
	server, token := recordingTestServer(t, &stubAnalyzer{response: &client.AnalysisResponse{ConfidenceScore: 70}})

	body, contentType := multipartRecording(t, "1", "take1.wav", []byte("audio"))
	resp := postRecording(t, server, token, body, contentType)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, contentType = multipartRecording(t, "1", "take2.wav", []byte("audio"))
	resp = postRecording(t, server, token, body, contentType)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
