package app

import (
	"context"
	"fmt"
	"strings"

	"emotlink/pkg/ai"
	"emotlink/pkg/domain"
)

// openingQuestion is the fixed first assistant turn of every room.
const openingQuestion = "안녕하세요! 오늘 하루는 어떠셨나요?"

// leaveSentinel is the literal user message that abandons a room.
const leaveSentinel = "채팅방 나가기"

const (
	// userTurnLimit is the number of user turns after which the
	// controller requests a closing-style reply.
	userTurnLimit = 5
	// historyWindow bounds how many recent turns feed the model.
	historyWindow = 30
)

const continuationSystemPrompt = "당신은 사용자가 하루를 되돌아보며 일기를 쓸 수 있도록 돕는 친절하고 공감 능력 높은 AI 상담가입니다. " +
	"주어진 이전 대화 내용을 바탕으로, 사용자의 말에 먼저 자연스럽게 공감하며 짧은 맞장구를 쳐주세요. " +
	"그 다음에, 대화의 흐름에 맞춰 감정과 경험을 더 깊이 탐색할 수 있는 후속 질문을 하나만 던져주세요. " +
	"모든 답변은 부드럽고 자연스러운 한국어 대화체로 해주세요. 질문만 툭 던지는 느낌을 주면 안 됩니다."

var closingSystemPrompt = "지금까지의 대화 내용을 종합해서 따뜻하고 격려하는 어조로 마무리 인사를 해주세요. " +
	"그리고 대화가 모두 끝났음을 명확히 알려주세요. " +
	"반드시 메시지 끝에 '" + ai.EndChatMarker + "'이라는 키워드를 포함해야 합니다."

// ChatStart is the response of a freshly opened room.
type ChatStart struct {
	Response string `json:"response"`
	Finished bool   `json:"finished"`
	RoomID   string `json:"room_id"`
}

// StartChat opens a room, records the fixed opening question, and
// registers the caller as its sole participant.
func (a *App) StartChat(ctx context.Context, user domain.User) (ChatStart, error) {
	if user.IsLinker() {
		return ChatStart{}, ErrLinkerForbidden
	}
	roomID := a.transcripts.CreateRoom()
	if err := a.transcripts.AppendMessage(ctx, roomID, user.ID, openingQuestion, "assistant"); err != nil {
		return ChatStart{}, fmt.Errorf("open room: %w", err)
	}
	if err := a.transcripts.AddParticipant(ctx, roomID, user.ID); err != nil {
		return ChatStart{}, fmt.Errorf("register participant: %w", err)
	}
	return ChatStart{Response: openingQuestion, Finished: false, RoomID: roomID}, nil
}

// PostMessage advances the conversation by one user turn. When the
// reply is flagged finished the transcript is synthesized into a diary
// entry and the room is destroyed.
func (a *App) PostMessage(ctx context.Context, user domain.User, roomID, message string) (ai.Turn, error) {
	if user.IsLinker() {
		return ai.Turn{}, ErrLinkerForbidden
	}
	exists, err := a.transcripts.RoomExists(ctx, roomID)
	if err != nil {
		return ai.Turn{}, fmt.Errorf("check room: %w", err)
	}
	if !exists {
		return ai.Turn{}, ErrSessionNotStarted
	}
	member, err := a.transcripts.IsParticipant(ctx, roomID, user.ID)
	if err != nil {
		return ai.Turn{}, fmt.Errorf("check participant: %w", err)
	}
	if !member {
		return ai.Turn{}, ErrChatForbidden
	}

	if message == leaveSentinel {
		if err := a.transcripts.DeleteRoom(ctx, roomID); err != nil {
			return ai.Turn{}, fmt.Errorf("abandon room: %w", err)
		}
		return ai.Turn{Finished: true}, nil
	}

	if err := a.transcripts.AppendMessage(ctx, roomID, user.ID, message, "user"); err != nil {
		return ai.Turn{}, fmt.Errorf("append user message: %w", err)
	}
	conversation, err := a.transcripts.ListMessages(ctx, roomID, historyWindow)
	if err != nil {
		return ai.Turn{}, fmt.Errorf("load transcript: %w", err)
	}

	// The transcript itself is the source of truth for how many times
	// the user has spoken.
	systemPrompt := continuationSystemPrompt
	if countUserTurns(conversation) >= userTurnLimit {
		systemPrompt = closingSystemPrompt
	}
	turn := a.gateway.DialogueTurn(ctx, systemPrompt, dialogueUserPrompt(conversation), a.dialogueChoice)

	if err := a.transcripts.AppendMessage(ctx, roomID, user.ID, turn.Response, "assistant"); err != nil {
		return ai.Turn{}, fmt.Errorf("append assistant message: %w", err)
	}

	if turn.Finished {
		// Diary persistence and room deletion are separate steps; a
		// crash between them can duplicate an entry.
		a.synthesizeAndSave(ctx, user.ID, conversation)
		if err := a.transcripts.DeleteRoom(ctx, roomID); err != nil {
			return ai.Turn{}, fmt.Errorf("close room: %w", err)
		}
	}
	return turn, nil
}

func countUserTurns(conversation []domain.ChatMessage) int {
	count := 0
	for _, msg := range conversation {
		if msg.Role == "user" {
			count++
		}
	}
	return count
}

func dialogueUserPrompt(conversation []domain.ChatMessage) string {
	return fmt.Sprintf(`이전 대화 내용:
---
%s
---
위 대화에 이어, 시스템 프롬프트의 지시에 따라 다음 응답을 생성해주세요.`, transcriptText(conversation))
}

// transcriptText renders turns as "speaker: text" lines.
func transcriptText(conversation []domain.ChatMessage) string {
	lines := make([]string, 0, len(conversation))
	for _, msg := range conversation {
		speaker := "사용자"
		if msg.Role == "assistant" {
			speaker = "상담가"
		}
		lines = append(lines, speaker+": "+msg.Text)
	}
	return strings.Join(lines, "\n")
}
