package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"emotlink/pkg/domain"
)

func TestSynthesizeAndSaveFallback(t *testing.T) {
	a, mem, _, gw := newTestApp(t)
	gw.synthErr = errors.New("upstream down")
	conversation := []domain.ChatMessage{
		{Role: "assistant", Text: openingQuestion},
		{Role: "user", Text: "힘든 하루였어요"},
	}

	a.synthesizeAndSave(context.Background(), "alice", conversation)

	entries, err := mem.ListDiaryEntries("alice")
	if err != nil {
		t.Fatalf("ListDiaryEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	entry := entries[0]
	if entry.Title != fallbackDiaryTitle || entry.Emotion != "😟" {
		t.Errorf("entry = %+v", entry)
	}
	if !strings.Contains(entry.Content, "사용자: 힘든 하루였어요") {
		t.Errorf("fallback content missing transcript: %q", entry.Content)
	}
	if entry.Depression != 0 || entry.Isolation != 0 || entry.Frustration != 0 {
		t.Errorf("fallback entry carries scores: %+v", entry)
	}
}

func TestSynthesizeAndSaveFallbackOnBadScores(t *testing.T) {
	a, mem, _, gw := newTestApp(t)
	gw.synthText = "제목: 하루\n우울감: 많이"

	a.synthesizeAndSave(context.Background(), "alice", []domain.ChatMessage{
		{Role: "user", Text: "이야기"},
	})

	entries, err := mem.ListDiaryEntries("alice")
	if err != nil {
		t.Fatalf("ListDiaryEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != fallbackDiaryTitle {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestSaveDiaryManual(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	ctx := context.Background()
	user := emoter("alice")

	entry, err := a.SaveDiary(ctx, user, "직접 쓴 일기", "오늘의 기록", "")
	if err != nil {
		t.Fatalf("SaveDiary: %v", err)
	}
	if entry.Emotion != "😊" {
		t.Errorf("default emotion = %q", entry.Emotion)
	}
	if entry.Depression != 0 || entry.Isolation != 0 || entry.Frustration != 0 {
		t.Errorf("manual entry carries scores: %+v", entry)
	}

	entries, err := mem.ListDiaryEntries(user.ID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries = %+v, %v", entries, err)
	}
	if entries[0].AuthorID != user.ID {
		t.Errorf("author = %q", entries[0].AuthorID)
	}
}

func TestSaveDiaryRejectsLinker(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	if _, err := a.SaveDiary(context.Background(), linker("bob"), "제목", "내용", "😊"); !errors.Is(err, ErrLinkerForbidden) {
		t.Fatalf("err = %v", err)
	}
}
