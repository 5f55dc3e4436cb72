package app

import (
	"strings"
	"testing"
)

func TestParseDiaryTextWellFormed(t *testing.T) {
	text := `제목: 오랜만의 산책
내용:
오늘은 공원을 오래 걸었다.
바람이 시원해서 기분이 좋았다.
감정: 평온
--- 감정 점수 분석 ---
우울감: 20
소외감: 10
좌절감: 5`

	parsed, err := parseDiaryText(text)
	if err != nil {
		t.Fatalf("parseDiaryText: %v", err)
	}
	if parsed.Title != "오랜만의 산책" {
		t.Errorf("title = %q", parsed.Title)
	}
	want := "오늘은 공원을 오래 걸었다.\n바람이 시원해서 기분이 좋았다."
	if parsed.Content != want {
		t.Errorf("content = %q, want %q", parsed.Content, want)
	}
	if parsed.Emotion != "평온" {
		t.Errorf("emotion = %q", parsed.Emotion)
	}
	if parsed.Depression != 20 || parsed.Isolation != 10 || parsed.Frustration != 5 {
		t.Errorf("scores = %d/%d/%d", parsed.Depression, parsed.Isolation, parsed.Frustration)
	}
}

func TestParseDiaryTextDefaults(t *testing.T) {
	parsed, err := parseDiaryText("아무 형식도 없는 응답입니다.")
	if err != nil {
		t.Fatalf("parseDiaryText: %v", err)
	}
	if parsed.Title != defaultDiaryTitle {
		t.Errorf("title = %q", parsed.Title)
	}
	if parsed.Content != defaultDiaryContent {
		t.Errorf("content = %q", parsed.Content)
	}
	if parsed.Emotion != defaultEmotion {
		t.Errorf("emotion = %q", parsed.Emotion)
	}
	if parsed.Depression != 0 || parsed.Isolation != 0 || parsed.Frustration != 0 {
		t.Errorf("scores should default to zero")
	}
}

func TestParseDiaryTextDividerExcluded(t *testing.T) {
	text := `내용:
첫 문단.
--- 감정 점수 분석 ---
우울감: 1
소외감: 2
좌절감: 3`

	parsed, err := parseDiaryText(text)
	if err != nil {
		t.Fatalf("parseDiaryText: %v", err)
	}
	if strings.Contains(parsed.Content, scoreDivider) {
		t.Errorf("content contains score divider: %q", parsed.Content)
	}
	if parsed.Content != "첫 문단." {
		t.Errorf("content = %q", parsed.Content)
	}
}

func TestParseDiaryTextBadScore(t *testing.T) {
	text := `제목: 테스트
우울감: 높음`
	if _, err := parseDiaryText(text); err == nil {
		t.Fatal("expected error for non-numeric score")
	}
}

func TestGlyphFor(t *testing.T) {
	cases := map[string]string{
		"기쁨": "😊",
		"평온": "😌",
		"걱정": "😟",
		"슬픔": "😢",
		"화남": "😠",
		"모름": "😊",
	}
	for emotion, want := range cases {
		if got := glyphFor(emotion); got != want {
			t.Errorf("glyphFor(%q) = %q, want %q", emotion, got, want)
		}
	}
}
