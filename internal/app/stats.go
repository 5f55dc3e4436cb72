package app

import (
	"context"
	"fmt"
	"math"

	"emotlink/pkg/domain"
)

// sentimentWeights scores each stored emotion glyph on a 1-5 scale.
// Unknown glyphs count as a neutral 3.
var sentimentWeights = map[string]int{
	"😊": 5, "😄": 5,
	"😌": 4, "🙏": 4,
	"😟": 2, "😰": 2,
	"😢": 1, "😠": 1, "😔": 1,
}

func sentimentWeight(emotion string) int {
	if w, ok := sentimentWeights[emotion]; ok {
		return w
	}
	return 3
}

// Stats aggregates the given user's diary entries into emotion counts
// and running affect averages.
func (a *App) Stats(ctx context.Context, userID string) (domain.EmotionStats, error) {
	entries, err := a.store.ListDiaryEntries(userID)
	if err != nil {
		return domain.EmotionStats{}, fmt.Errorf("list diary entries: %w", err)
	}
	return computeStats(entries), nil
}

func computeStats(entries []domain.DiaryEntry) domain.EmotionStats {
	stats := domain.EmotionStats{EmotionCounts: map[string]int{}}
	if len(entries) == 0 {
		return stats
	}

	var totalDepression, totalIsolation, totalFrustration int
	for _, entry := range entries {
		emotion := entry.Emotion
		if emotion == "" {
			emotion = "😊"
		}
		stats.EmotionCounts[emotion]++
		totalDepression += entry.Depression
		totalIsolation += entry.Isolation
		totalFrustration += entry.Frustration
	}

	for emotion, count := range stats.EmotionCounts {
		stats.TotalScore += sentimentWeight(emotion) * count
	}
	n := len(entries)
	stats.TotalEntries = n
	stats.AverageScore = round2(float64(stats.TotalScore) / float64(n))
	stats.AvgDepression = round1(float64(totalDepression) / float64(n))
	stats.AvgIsolation = round1(float64(totalIsolation) / float64(n))
	stats.AvgFrustration = round1(float64(totalFrustration) / float64(n))
	return stats
}

// Health classifies the change in mean affect score between the user's
// two most recent entries. A rising mean is worse: +30 is red, +15 is
// orange, and a drop of 30 or more is also orange as a sharp swing.
func (a *App) Health(ctx context.Context, userID string) (domain.HealthIndicator, error) {
	entries, err := a.store.LastDiaryEntries(userID, 2)
	if err != nil {
		return domain.HealthIndicator{}, fmt.Errorf("load recent entries: %w", err)
	}
	return computeHealth(entries), nil
}

// computeHealth expects entries newest first.
func computeHealth(entries []domain.DiaryEntry) domain.HealthIndicator {
	if len(entries) < 2 {
		return domain.HealthIndicator{Color: "green", Delta: 0.0}
	}
	delta := round1(affectMean(entries[0]) - affectMean(entries[1]))

	color := "green"
	switch {
	case delta >= 30:
		color = "red"
	case delta >= 15 || delta <= -30:
		color = "orange"
	}
	return domain.HealthIndicator{Color: color, Delta: delta}
}

func affectMean(entry domain.DiaryEntry) float64 {
	return float64(entry.Depression+entry.Isolation+entry.Frustration) / 3.0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
