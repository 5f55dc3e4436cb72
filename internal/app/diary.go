package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"emotlink/internal/util"
	"emotlink/pkg/domain"
)

const synthesisSystemPrompt = "당신은 주어진 대화 내용을 바탕으로 감정이 담긴 일기를 작성하고, 특정 감정 점수를 분석하는 전문가입니다. " +
	"대화의 핵심 내용을 요약하여, 사용자의 경험과 감정이 잘 드러나는 자연스러운 일기 형식의 글을 작성해주세요. " +
	"응답은 반드시 다음 형식에 맞춰 각 항목을 줄바꿈으로 구분해야 합니다.\n" +
	"제목: [여기에 20자 내외의 일기 제목 작성]\n" +
	"내용:\n" +
	"[여기에 3~4문단으로 구성된 일기 본문 작성]\n" +
	"감정: [기쁨, 평온, 걱정, 슬픔, 화남 중 가장 적절한 감정 하나만 텍스트로 작성]\n" +
	"--- 감정 점수 분석 ---\n" +
	"우울감: [0부터 100 사이의 정수 점수]\n" +
	"소외감: [0부터 100 사이의 정수 점수]\n" +
	"좌절감: [0부터 100 사이의 정수 점수]"

const (
	fallbackDiaryTitle   = "일기 생성 실패"
	fallbackDiaryPreface = "대화를 바탕으로 일기를 생성하는 데 실패했습니다."
)

// synthesizeAndSave turns a finished conversation into a diary entry.
// Synthesis failures never propagate; a fallback entry carrying the raw
// transcript is written instead so the conversation is not lost.
func (a *App) synthesizeAndSave(ctx context.Context, userID string, conversation []domain.ChatMessage) {
	history := transcriptText(conversation)
	entry, err := a.synthesizeEntry(ctx, userID, history)
	if err != nil {
		slog.Error("diary synthesis failed", "user_id", userID, "error", err)
		entry = fallbackEntry(userID, history)
	}
	if err := a.store.SaveDiaryEntry(entry); err != nil {
		slog.Error("diary save failed", "user_id", userID, "error", err)
		return
	}
	slog.Info("diary entry saved", "user_id", userID, "entry_id", entry.ID)
}

func (a *App) synthesizeEntry(ctx context.Context, userID, history string) (domain.DiaryEntry, error) {
	userPrompt := fmt.Sprintf(`다음은 사용자와 상담가 간의 대화 내용입니다.
---
%s
---
위 대화 내용을 바탕으로, 시스템 프롬프트의 지시에 따라 일기와 감정 점수를 생성해주세요.`, history)

	text, err := a.gateway.Synthesize(ctx, synthesisSystemPrompt, userPrompt)
	if err != nil {
		return domain.DiaryEntry{}, err
	}
	parsed, err := parseDiaryText(text)
	if err != nil {
		return domain.DiaryEntry{}, err
	}
	now := time.Now().UTC()
	return domain.DiaryEntry{
		ID:           util.NewID(),
		Title:        parsed.Title,
		Content:      parsed.Content,
		Emotion:      glyphFor(parsed.Emotion),
		AuthorID:     userID,
		CreatedAt:    now,
		LastModified: now,
		Depression:   parsed.Depression,
		Isolation:    parsed.Isolation,
		Frustration:  parsed.Frustration,
	}, nil
}

func fallbackEntry(userID, history string) domain.DiaryEntry {
	now := time.Now().UTC()
	return domain.DiaryEntry{
		ID:           util.NewID(),
		Title:        fallbackDiaryTitle,
		Content:      fallbackDiaryPreface + "\n\n" + history,
		Emotion:      "😟",
		AuthorID:     userID,
		CreatedAt:    now,
		LastModified: now,
	}
}

// SaveDiary records a manually written entry. Manual entries carry no
// affect scores and default to the joy glyph when no emotion is given.
func (a *App) SaveDiary(ctx context.Context, user domain.User, title, content, emotion string) (domain.DiaryEntry, error) {
	if user.IsLinker() {
		return domain.DiaryEntry{}, ErrLinkerForbidden
	}
	if emotion == "" {
		emotion = "😊"
	}
	now := time.Now().UTC()
	entry := domain.DiaryEntry{
		ID:           util.NewID(),
		Title:        title,
		Content:      content,
		Emotion:      emotion,
		AuthorID:     user.ID,
		CreatedAt:    now,
		LastModified: now,
	}
	if err := a.store.SaveDiaryEntry(entry); err != nil {
		return domain.DiaryEntry{}, fmt.Errorf("save diary entry: %w", err)
	}
	return entry, nil
}

// DiaryEntries lists the caller's entries in chronological order.
func (a *App) DiaryEntries(ctx context.Context, user domain.User) ([]domain.DiaryEntry, error) {
	entries, err := a.store.ListDiaryEntries(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list diary entries: %w", err)
	}
	return entries, nil
}
