package app

import (
	"fmt"
	"strconv"
	"strings"
)

const scoreDivider = "--- 감정 점수 분석 ---"

const (
	defaultDiaryTitle   = "자동 생성된 일기"
	defaultDiaryContent = "내용을 생성하지 못했습니다."
	defaultEmotion      = "기쁨"
)

// emotionGlyphs maps the model's emotion label to the glyph stored on
// the diary entry.
var emotionGlyphs = map[string]string{
	"기쁨": "😊",
	"평온": "😌",
	"걱정": "😟",
	"슬픔": "😢",
	"화남": "😠",
}

func glyphFor(emotion string) string {
	if glyph, ok := emotionGlyphs[emotion]; ok {
		return glyph
	}
	return "😊"
}

// parsedDiary is the labeled payload extracted from a synthesis reply.
type parsedDiary struct {
	Title       string
	Content     string
	Emotion     string
	Depression  int
	Isolation   int
	Frustration int
}

// parseDiaryText extracts the labeled sections of a synthesis reply.
// Lines between "내용:" and the next label form the body; the score
// divider line is never part of it. Missing sections fall back to
// defaults, but a malformed score is an error.
func parseDiaryText(text string) (parsedDiary, error) {
	parsed := parsedDiary{
		Title:   defaultDiaryTitle,
		Emotion: defaultEmotion,
	}
	var contentLines []string
	inContent := false

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		stripped := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(stripped, "제목:"):
			parsed.Title = strings.TrimSpace(strings.TrimPrefix(stripped, "제목:"))
			inContent = false
		case strings.HasPrefix(stripped, "내용:"):
			inContent = true
		case strings.HasPrefix(stripped, "감정:"):
			parsed.Emotion = strings.TrimSpace(strings.TrimPrefix(stripped, "감정:"))
			inContent = false
		case strings.HasPrefix(stripped, "우울감:"):
			score, err := parseScore(stripped, "우울감:")
			if err != nil {
				return parsedDiary{}, err
			}
			parsed.Depression = score
			inContent = false
		case strings.HasPrefix(stripped, "소외감:"):
			score, err := parseScore(stripped, "소외감:")
			if err != nil {
				return parsedDiary{}, err
			}
			parsed.Isolation = score
			inContent = false
		case strings.HasPrefix(stripped, "좌절감:"):
			score, err := parseScore(stripped, "좌절감:")
			if err != nil {
				return parsedDiary{}, err
			}
			parsed.Frustration = score
			inContent = false
		case inContent && !strings.Contains(stripped, scoreDivider):
			contentLines = append(contentLines, line)
		}
	}

	parsed.Content = strings.TrimSpace(strings.Join(contentLines, "\n"))
	if parsed.Content == "" {
		parsed.Content = defaultDiaryContent
	}
	return parsed, nil
}

func parseScore(line, label string) (int, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(line, label))
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s score %q: %w", strings.TrimSuffix(label, ":"), raw, err)
	}
	return score, nil
}
