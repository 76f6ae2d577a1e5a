package client

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechflow/backend/internal/errors"
)

func writeTempAudio(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestAnalyzeSendsMultipartForm(t *testing.T) {
	audio := []byte("fake-wav-bytes")
	path := writeTempAudio(t, "upload.wav", audio)

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Medium", r.FormValue("level"))
		assert.Equal(t, "Behavioral", r.FormValue("category"))
		assert.Equal(t, "Tell me about yourself.", r.FormValue("title"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "interview.wav", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hello","confidence_score":78}`))
	}))
	defer server.Close()

	c := NewAnalysisClient(AnalysisConfig{BaseURL: server.URL})

	result, err := c.Analyze(context.Background(), path, "Medium", "Behavioral", "Tell me about yourself.", "interview.wav")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/transcribe", gotPath)
	assert.Equal(t, "hello", result.Text)
	assert.Equal(t, 78.0, result.ConfidenceScore)
}

func TestAnalyzeParsesFullResponse(t *testing.T) {
	path := writeTempAudio(t, "clip.mp3", []byte("mp3"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"text": "good morning everyone",
			"confidence_score": 78,
			"overall_rating": "Good",
			"fluency_score": 82.5,
			"wpm": 120,
			"word_count": 45,
			"duration_seconds": 22.5,
			"filler_count": 3,
			"filler_words": ["um", "uh"],
			"total_pauses": 2,
			"total_hesitations": 1,
			"pause_durations": [0.8, 1.2],
			"recommendations": ["Slow down slightly"],
			"improved_text": "Good morning, everyone."
		}`))
	}))
	defer server.Close()

	c := NewAnalysisClient(AnalysisConfig{BaseURL: server.URL})

	result, err := c.Analyze(context.Background(), path, "Easy", "Pitch", "title", "")
	require.NoError(t, err)

	assert.Equal(t, "good morning everyone", result.Text)
	assert.Equal(t, "Good", result.OverallRating)
	assert.Equal(t, 82.5, result.FluencyScore)
	assert.Equal(t, 45, result.WordCount)
	assert.Equal(t, []string{"um", "uh"}, result.FillerWords)
	assert.Equal(t, []float64{0.8, 1.2}, result.PauseDurations)
	require.NotNil(t, result.ImprovedText)
	assert.Equal(t, "Good morning, everyone.", *result.ImprovedText)
	// Absent fields keep their zero values.
	assert.Zero(t, result.TotalPauseTime)
	assert.Nil(t, result.CleanedText)
}

func TestAnalyzeNon2xxStatus(t *testing.T) {
	path := writeTempAudio(t, "clip.wav", []byte("wav"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"unsupported language"}`))
	}))
	defer server.Close()

	c := NewAnalysisClient(AnalysisConfig{BaseURL: server.URL})

	_, err := c.Analyze(context.Background(), path, "Easy", "Pitch", "title", "")
	require.Error(t, err)

	var analysisErr *errors.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, http.StatusBadRequest, analysisErr.HTTPStatus)
	assert.Contains(t, analysisErr.Body, "unsupported language")
}

func TestAnalyzeTransportFailure(t *testing.T) {
	path := writeTempAudio(t, "clip.wav", []byte("wav"))

	// Server closed before the call: connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := NewAnalysisClient(AnalysisConfig{BaseURL: server.URL, Timeout: 2 * time.Second})

	_, err := c.Analyze(context.Background(), path, "Easy", "Pitch", "title", "")
	require.Error(t, err)

	var analysisErr *errors.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, errors.TransportFailure, analysisErr.HTTPStatus)
}

func TestAnalyzeUndecodableBody(t *testing.T) {
	path := writeTempAudio(t, "clip.wav", []byte("wav"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer server.Close()

	c := NewAnalysisClient(AnalysisConfig{BaseURL: server.URL})

	_, err := c.Analyze(context.Background(), path, "Easy", "Pitch", "title", "")
	require.Error(t, err)

	var analysisErr *errors.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, errors.TransportFailure, analysisErr.HTTPStatus)
}

func TestAnalyzeMissingFile(t *testing.T) {
	c := NewAnalysisClient(AnalysisConfig{BaseURL: "http://localhost:1"})

	_, err := c.Analyze(context.Background(), filepath.Join(t.TempDir(), "absent.wav"), "Easy", "Pitch", "title", "")
	require.Error(t, err)

	// Local file errors are not analysis errors.
	var analysisErr *errors.AnalysisError
	assert.False(t, stderrors.As(err, &analysisErr))
}
