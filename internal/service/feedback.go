package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/speechflow/backend/internal/client"
)

// BuildFeedback renders the analysis into the multi-line summary shown to
// the user. Field order is fixed; snapshot tests depend on it.
func BuildFeedback(analysis *client.AnalysisResponse) string {
	lines := []string{
		fmt.Sprintf("Overall Rating: %s", analysis.OverallRating),
		fmt.Sprintf("Confidence Score: %s/100", num(analysis.ConfidenceScore)),
		fmt.Sprintf("Fluency Score: %s/100", num(analysis.FluencyScore)),
		fmt.Sprintf("Words Per Minute: %s", num(analysis.WPM)),
		fmt.Sprintf("Word Count: %d", analysis.WordCount),
		fmt.Sprintf("Duration: %ss", num(analysis.DurationSeconds)),
		fmt.Sprintf("Filler Words: %d", analysis.FillerCount),
		fmt.Sprintf("Total Pauses: %d", analysis.TotalPauses),
		fmt.Sprintf("Total Hesitations: %d", analysis.TotalHesitations),
	}

	if len(analysis.Recommendations) > 0 {
		lines = append(lines, "", "Recommendations:")
		for i, rec := range analysis.Recommendations {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, rec))
		}
	}

	return strings.Join(lines, "\n")
}

// BuildMetadata flattens the analysis into the metadata record persisted on
// the result. Absent sequences become empty, absent numerics stay zero; a
// partial engine response never fails here.
func BuildMetadata(analysis *client.AnalysisResponse) map[string]interface{} {
	return map[string]interface{}{
		"improved_text":          analysis.ImprovedText,
		"tts_speech":             rawOrNil(analysis.TTSSpeech),
		"cleaned_text":           analysis.CleanedText,
		"filler_words":           stringsOrEmpty(analysis.FillerWords),
		"filler_count":           analysis.FillerCount,
		"duration_seconds":       analysis.DurationSeconds,
		"word_count":             analysis.WordCount,
		"wpm":                    analysis.WPM,
		"total_pauses":           analysis.TotalPauses,
		"total_hesitations":      analysis.TotalHesitations,
		"pause_durations":        floatsOrEmpty(analysis.PauseDurations),
		"average_pause_duration": analysis.AveragePauseDuration,
		"total_pause_time":       analysis.TotalPauseTime,
		"hesitation_words":       stringsOrEmpty(analysis.HesitationWords),
		"fluency_score":          analysis.FluencyScore,
		"pause_ratio":            analysis.PauseRatio,
		"hesitation_rate":        analysis.HesitationRate,
		"wpm_score":              analysis.WPMScore,
		"filler_score":           analysis.FillerScore,
		"pause_score":            analysis.PauseScore,
		"hesitation_score":       analysis.HesitationScore,
		"overall_rating":         ratingOrNil(analysis.OverallRating),
		"recommendations":        stringsOrEmpty(analysis.Recommendations),
	}
}

// num renders a JSON number the way it arrived: no trailing zeros, no
// exponent for ordinary magnitudes.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func floatsOrEmpty(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return s
}

func rawOrNil(raw []byte) interface{} {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.RawMessage(raw)
}

func ratingOrNil(rating string) interface{} {
	if rating == "" {
		return nil
	}
	return rating
}
