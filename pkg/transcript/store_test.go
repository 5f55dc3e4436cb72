package transcript

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"emotlink/pkg/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	return NewStore(m.Addr(), "", time.Hour), m
}

func TestAppendAndListChronological(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	roomID := s.CreateRoom()

	if err := s.AppendMessage(ctx, roomID, "", "첫 질문", "assistant"); err != nil {
		t.Fatalf("append assistant: %v", err)
	}
	if err := s.AppendMessage(ctx, roomID, "user-1", "첫 대답", "user"); err != nil {
		t.Fatalf("append user: %v", err)
	}

	messages, err := s.ListMessages(ctx, roomID, 30)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "assistant" || messages[1].Role != "user" {
		t.Fatalf("messages out of order: %+v", messages)
	}
	if messages[0].Time > messages[1].Time {
		t.Fatalf("timestamps not non-decreasing: %v > %v", messages[0].Time, messages[1].Time)
	}
}

func TestListOrdersByScoreNotInsertion(t *testing.T) {
	s, m := newTestStore(t)
	ctx := context.Background()
	roomID := "room-ooo"

	// Insert newest first directly; the store must still return
	// chronological order.
	late, _ := json.Marshal(domain.ChatMessage{ID: "b", Time: 200, Role: "user", Text: "나중"})
	early, _ := json.Marshal(domain.ChatMessage{ID: "a", Time: 100, Role: "assistant", Text: "먼저"})
	m.ZAdd(messagesKeyPrefix+roomID, 200, string(late))
	m.ZAdd(messagesKeyPrefix+roomID, 100, string(early))

	messages, err := s.ListMessages(ctx, roomID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 2 || messages[0].ID != "a" || messages[1].ID != "b" {
		t.Fatalf("expected chronological order, got %+v", messages)
	}
}

func TestListMessagesLimitKeepsMostRecent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	roomID := s.CreateRoom()

	texts := []string{"하나", "둘", "셋"}
	for _, text := range texts {
		if err := s.AppendMessage(ctx, roomID, "user-1", text, "user"); err != nil {
			t.Fatalf("append: %v", err)
		}
		// miniredis time resolution can collapse identical scores
		time.Sleep(2 * time.Millisecond)
	}

	messages, err := s.ListMessages(ctx, roomID, 2)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Text != "둘" || messages[1].Text != "셋" {
		t.Fatalf("expected two most recent in order, got %+v", messages)
	}
}

func TestParticipants(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	roomID := s.CreateRoom()

	if err := s.AddParticipant(ctx, roomID, "user-1"); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	ok, err := s.IsParticipant(ctx, roomID, "user-1")
	if err != nil || !ok {
		t.Fatalf("expected membership, ok=%v err=%v", ok, err)
	}
	ok, err = s.IsParticipant(ctx, roomID, "someone-else")
	if err != nil || ok {
		t.Fatalf("expected non-membership, ok=%v err=%v", ok, err)
	}
}

func TestDeleteRoomRemovesBothKeys(t *testing.T) {
	s, m := newTestStore(t)
	ctx := context.Background()
	roomID := s.CreateRoom()

	if err := s.AppendMessage(ctx, roomID, "user-1", "안녕", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AddParticipant(ctx, roomID, "user-1"); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := s.DeleteRoom(ctx, roomID); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	if m.Exists(messagesKeyPrefix + roomID) {
		t.Fatalf("transcript key survived delete")
	}
	if m.Exists(participantsKeyPrefix + roomID) {
		t.Fatalf("participants key survived delete")
	}
	ok, err := s.RoomExists(ctx, roomID)
	if err != nil || ok {
		t.Fatalf("room should not exist, ok=%v err=%v", ok, err)
	}
}

func TestRoomExpiresAndAppendRefreshesTTL(t *testing.T) {
	s, m := newTestStore(t)
	ctx := context.Background()
	roomID := s.CreateRoom()

	if err := s.AppendMessage(ctx, roomID, "user-1", "안녕", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}
	m.FastForward(50 * time.Minute)
	if err := s.AppendMessage(ctx, roomID, "user-1", "아직 있어요", "user"); err != nil {
		t.Fatalf("append after idle: %v", err)
	}
	// Without the refresh the first append's 1h TTL would have fired here.
	m.FastForward(50 * time.Minute)
	ok, err := s.RoomExists(ctx, roomID)
	if err != nil || !ok {
		t.Fatalf("expected refreshed room to survive, ok=%v err=%v", ok, err)
	}
	m.FastForward(time.Hour)
	ok, err = s.RoomExists(ctx, roomID)
	if err != nil || ok {
		t.Fatalf("expected room to expire, ok=%v err=%v", ok, err)
	}
	messages, err := s.ListMessages(ctx, roomID, 0)
	if err != nil {
		t.Fatalf("list after expiry: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected empty transcript after expiry, got %d", len(messages))
	}
}
