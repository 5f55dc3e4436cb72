package app

import (
	"testing"

	"emotlink/pkg/domain"
)

func TestComputeStatsEmpty(t *testing.T) {
	stats := computeStats(nil)
	if stats.TotalEntries != 0 || stats.TotalScore != 0 || stats.AverageScore != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
	if len(stats.EmotionCounts) != 0 {
		t.Errorf("emotion counts = %v", stats.EmotionCounts)
	}
}

func TestComputeStatsWeightedAverage(t *testing.T) {
	entries := []domain.DiaryEntry{
		{Emotion: "😊", Depression: 10, Isolation: 20, Frustration: 30},
		{Emotion: "😢", Depression: 50, Isolation: 40, Frustration: 60},
		{Emotion: "🤖", Depression: 0, Isolation: 0, Frustration: 0},
	}
	stats := computeStats(entries)
	if stats.TotalEntries != 3 {
		t.Fatalf("total entries = %d", stats.TotalEntries)
	}
	// 5 + 1 + 3 (unknown glyph counts as neutral)
	if stats.TotalScore != 9 {
		t.Errorf("total score = %d", stats.TotalScore)
	}
	if stats.AverageScore != 3.0 {
		t.Errorf("average score = %v", stats.AverageScore)
	}
	if stats.AvgDepression != 20.0 {
		t.Errorf("avg depression = %v", stats.AvgDepression)
	}
	if stats.AvgIsolation != 20.0 {
		t.Errorf("avg isolation = %v", stats.AvgIsolation)
	}
	if stats.AvgFrustration != 30.0 {
		t.Errorf("avg frustration = %v", stats.AvgFrustration)
	}
	if stats.EmotionCounts["😊"] != 1 || stats.EmotionCounts["😢"] != 1 || stats.EmotionCounts["🤖"] != 1 {
		t.Errorf("emotion counts = %v", stats.EmotionCounts)
	}
}

func TestComputeStatsEmptyEmotionCountsAsJoy(t *testing.T) {
	stats := computeStats([]domain.DiaryEntry{{Emotion: ""}})
	if stats.EmotionCounts["😊"] != 1 {
		t.Errorf("emotion counts = %v", stats.EmotionCounts)
	}
	if stats.TotalScore != 5 {
		t.Errorf("total score = %d", stats.TotalScore)
	}
}

func TestComputeHealth(t *testing.T) {
	entry := func(score int) domain.DiaryEntry {
		return domain.DiaryEntry{Depression: score, Isolation: score, Frustration: score}
	}
	cases := []struct {
		name      string
		entries   []domain.DiaryEntry
		wantColor string
		wantDelta float64
	}{
		{"no entries", nil, "green", 0.0},
		{"single entry", []domain.DiaryEntry{entry(80)}, "green", 0.0},
		{"sharp rise", []domain.DiaryEntry{entry(50), entry(10)}, "red", 40.0},
		{"moderate rise", []domain.DiaryEntry{entry(30), entry(10)}, "orange", 20.0},
		{"small rise", []domain.DiaryEntry{entry(20), entry(10)}, "green", 10.0},
		{"sharp drop", []domain.DiaryEntry{entry(10), entry(50)}, "orange", -40.0},
		{"moderate drop", []domain.DiaryEntry{entry(10), entry(30)}, "green", -20.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := computeHealth(tc.entries)
			if got.Color != tc.wantColor || got.Delta != tc.wantDelta {
				t.Errorf("health = %+v, want {%s %v}", got, tc.wantColor, tc.wantDelta)
			}
		})
	}
}

func TestComputeHealthRoundsDelta(t *testing.T) {
	entries := []domain.DiaryEntry{
		{Depression: 10, Isolation: 10, Frustration: 11},
		{Depression: 10, Isolation: 10, Frustration: 10},
	}
	got := computeHealth(entries)
	if got.Delta != 0.3 {
		t.Errorf("delta = %v, want 0.3", got.Delta)
	}
}
