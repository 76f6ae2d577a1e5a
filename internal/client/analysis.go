package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/speechflow/backend/internal/errors"
)

const transcribePath = "/api/v1/transcribe"

// AnalysisConfig configures the speech analysis client.
type AnalysisConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AnalysisClient calls the external speech analysis engine over HTTP.
type AnalysisClient struct {
	baseURL string
	client  *http.Client
}

// AnalysisResponse is the JSON body returned by the analysis engine. Absent
// numeric fields decode to 0 and absent sequences to nil, which downstream
// formatting normalizes to empty.
type AnalysisResponse struct {
	Text                 string          `json:"text"`
	ConfidenceScore      float64         `json:"confidence_score"`
	OverallRating        string          `json:"overall_rating"`
	FluencyScore         float64         `json:"fluency_score"`
	WPM                  float64         `json:"wpm"`
	WordCount            int             `json:"word_count"`
	DurationSeconds      float64         `json:"duration_seconds"`
	FillerCount          int             `json:"filler_count"`
	FillerWords          []string        `json:"filler_words"`
	TotalPauses          int             `json:"total_pauses"`
	TotalHesitations     int             `json:"total_hesitations"`
	PauseDurations       []float64       `json:"pause_durations"`
	AveragePauseDuration float64         `json:"average_pause_duration"`
	TotalPauseTime       float64         `json:"total_pause_time"`
	HesitationWords      []string        `json:"hesitation_words"`
	PauseRatio           float64         `json:"pause_ratio"`
	HesitationRate       float64         `json:"hesitation_rate"`
	WPMScore             float64         `json:"wpm_score"`
	FillerScore          float64         `json:"filler_score"`
	PauseScore           float64         `json:"pause_score"`
	HesitationScore      float64         `json:"hesitation_score"`
	Recommendations      []string        `json:"recommendations"`
	ImprovedText         *string         `json:"improved_text"`
	CleanedText          *string         `json:"cleaned_text"`
	TTSSpeech            json.RawMessage `json:"tts_speech"`
}

// NewAnalysisClient creates a new speech analysis client.
func NewAnalysisClient(cfg AnalysisConfig) *AnalysisClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &AnalysisClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Analyze uploads the audio file at audioPath together with the challenge
// context and returns the parsed analysis. A single call, no retries. Any
// non-2xx status, transport failure, or undecodable body yields an
// *errors.AnalysisError.
func (c *AnalysisClient) Analyze(ctx context.Context, audioPath, level, category, title, originalFilename string) (*AnalysisResponse, error) {
	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	if originalFilename == "" {
		originalFilename = filepath.Base(audioPath)
	}

	// Build multipart/form-data body
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := createAudioPart(writer, originalFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	_ = writer.WriteField("level", level)
	_ = writer.WriteField("category", category)
	_ = writer.WriteField("title", title)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribePath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewAnalysisError(errors.TransportFailure, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewAnalysisError(errors.TransportFailure, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewAnalysisError(resp.StatusCode, string(respBody))
	}

	var result AnalysisResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, errors.NewAnalysisError(errors.TransportFailure, fmt.Sprintf("undecodable response body: %v", err))
	}

	return &result, nil
}

// createAudioPart adds the file field with the original filename and a
// content type derived from its extension.
func createAudioPart(writer *multipart.Writer, filename string) (io.Writer, error) {
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)

	return writer.CreatePart(header)
}
