package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechflow/backend/internal/client"
)

func sampleAnalysis() *client.AnalysisResponse {
	improved := "Good morning, everyone."
	return &client.AnalysisResponse{
		Text:             "good morning everyone um so today",
		ConfidenceScore:  78,
		OverallRating:    "Good",
		FluencyScore:     82.5,
		WPM:              120,
		WordCount:        45,
		DurationSeconds:  22.5,
		FillerCount:      3,
		FillerWords:      []string{"um", "uh", "like"},
		TotalPauses:      2,
		TotalHesitations: 1,
		PauseDurations:   []float64{0.8, 1.2},
		Recommendations:  []string{"Slow down slightly", "Reduce filler words"},
		ImprovedText:     &improved,
	}
}

func TestBuildFeedbackSnapshot(t *testing.T) {
	got := BuildFeedback(sampleAnalysis())

	want := "Overall Rating: Good\n" +
		"Confidence Score: 78/100\n" +
		"Fluency Score: 82.5/100\n" +
		"Words Per Minute: 120\n" +
		"Word Count: 45\n" +
		"Duration: 22.5s\n" +
		"Filler Words: 3\n" +
		"Total Pauses: 2\n" +
		"Total Hesitations: 1\n" +
		"\n" +
		"Recommendations:\n" +
		"1. Slow down slightly\n" +
		"2. Reduce filler words"

	assert.Equal(t, want, got)
}

func TestBuildFeedbackNoRecommendations(t *testing.T) {
	analysis := sampleAnalysis()
	analysis.Recommendations = nil

	got := BuildFeedback(analysis)
	assert.NotContains(t, got, "Recommendations:")
	assert.Contains(t, got, "Total Hesitations: 1")
}

func TestBuildFeedbackDeterministic(t *testing.T) {
	analysis := sampleAnalysis()
	assert.Equal(t, BuildFeedback(analysis), BuildFeedback(analysis))
}

func TestBuildFeedbackWholeNumbersWithoutDecimals(t *testing.T) {
	analysis := &client.AnalysisResponse{
		OverallRating:   "Fair",
		ConfidenceScore: 60,
		FluencyScore:    45.2,
		WPM:             98,
		DurationSeconds: 30,
	}

	got := BuildFeedback(analysis)
	assert.Contains(t, got, "Confidence Score: 60/100")
	assert.Contains(t, got, "Fluency Score: 45.2/100")
	assert.Contains(t, got, "Duration: 30s")
}

func TestBuildMetadataFullResponse(t *testing.T) {
	metadata := BuildMetadata(sampleAnalysis())

	assert.Equal(t, 3, metadata["filler_count"])
	assert.Equal(t, []string{"um", "uh", "like"}, metadata["filler_words"])
	assert.Equal(t, []float64{0.8, 1.2}, metadata["pause_durations"])
	assert.Equal(t, "Good", metadata["overall_rating"])
	assert.Equal(t, 82.5, metadata["fluency_score"])

	// The metadata record must round-trip as JSON for the jsonb column.
	data, err := json.Marshal(metadata)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"wpm":120`)
}

func TestBuildMetadataDefaultsOnEmptyResponse(t *testing.T) {
	metadata := BuildMetadata(&client.AnalysisResponse{})

	assert.Equal(t, []string{}, metadata["filler_words"])
	assert.Equal(t, []string{}, metadata["hesitation_words"])
	assert.Equal(t, []string{}, metadata["recommendations"])
	assert.Equal(t, []float64{}, metadata["pause_durations"])
	assert.Nil(t, metadata["overall_rating"])
	assert.Nil(t, metadata["tts_speech"])
	assert.Equal(t, 0, metadata["filler_count"])
	assert.Equal(t, 0.0, metadata["duration_seconds"])
}
