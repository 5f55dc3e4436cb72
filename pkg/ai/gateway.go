package ai

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// EndChatMarker is the termination keyword the closing prompt instructs
// the model to embed. It is stripped before text reaches the user.
const EndChatMarker = "END_CHAT"

// ApologyMessage is returned verbatim when every backend fails. The
// conversation is marked finished so the dialogue never hangs.
const ApologyMessage = "죄송합니다, AI 모델과 통신하는 중 오류가 발생했어요. 잠시 후 다시 시도해주세요."

const (
	defaultDialogueTimeout  = 30 * time.Second
	defaultSynthesisTimeout = 60 * time.Second
)

// ModelChoice selects the backend strategy for a single dialogue call.
type ModelChoice int

const (
	// PrimaryOnly calls the hosted model directly.
	PrimaryOnly ModelChoice = iota
	// PreferSelfHosted calls the self-hosted model first and retries the
	// same prompt once against the primary on any failure.
	PreferSelfHosted
)

// Turn is one assistant reply in a dialogue.
type Turn struct {
	Response string `json:"response"`
	Finished bool   `json:"finished"`
}

// Gateway wraps the primary hosted model and an optional self-hosted
// model behind per-purpose timeouts and a one-shot fallback hop.
type Gateway struct {
	primary          TextGenerator
	synthesis        TextGenerator
	selfHosted       TextGenerator
	dialogueTimeout  time.Duration
	synthesisTimeout time.Duration
}

// GatewayConfig wires the backends. Primary is required. Synthesis
// defaults to Primary when nil; SelfHosted may be nil.
type GatewayConfig struct {
	Primary          TextGenerator
	Synthesis        TextGenerator
	SelfHosted       TextGenerator
	DialogueTimeout  time.Duration
	SynthesisTimeout time.Duration
}

// NewGateway constructs a gateway with defaulted timeouts.
func NewGateway(cfg GatewayConfig) *Gateway {
	synthesis := cfg.Synthesis
	if synthesis == nil {
		synthesis = cfg.Primary
	}
	dialogueTimeout := cfg.DialogueTimeout
	if dialogueTimeout <= 0 {
		dialogueTimeout = defaultDialogueTimeout
	}
	synthesisTimeout := cfg.SynthesisTimeout
	if synthesisTimeout <= 0 {
		synthesisTimeout = defaultSynthesisTimeout
	}
	return &Gateway{
		primary:          cfg.Primary,
		synthesis:        synthesis,
		selfHosted:       cfg.SelfHosted,
		dialogueTimeout:  dialogueTimeout,
		synthesisTimeout: synthesisTimeout,
	}
}

// DialogueTurn runs one conversational completion. On total backend
// failure it returns the fixed apology with Finished=true. A response
// containing EndChatMarker is flagged finished and the marker stripped.
func (g *Gateway) DialogueTurn(ctx context.Context, systemPrompt, userPrompt string, choice ModelChoice) Turn {
	text, err := g.completeDialogue(ctx, systemPrompt, userPrompt, choice)
	if err != nil {
		slog.Warn("dialogue completion failed", "err", err)
		return Turn{Response: ApologyMessage, Finished: true}
	}
	if strings.Contains(text, EndChatMarker) {
		cleaned := strings.TrimSpace(strings.ReplaceAll(text, EndChatMarker, ""))
		return Turn{Response: cleaned, Finished: true}
	}
	return Turn{Response: text, Finished: false}
}

// Synthesize runs a diary-synthesis completion against the hosted model
// with the longer timeout. Errors propagate; the synthesizer owns the
// fallback behavior.
func (g *Gateway) Synthesize(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.synthesisTimeout)
	defer cancel()
	return g.synthesis.GenerateText(ctx, systemPrompt, userPrompt)
}

func (g *Gateway) completeDialogue(ctx context.Context, systemPrompt, userPrompt string, choice ModelChoice) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.dialogueTimeout)
	defer cancel()
	if choice == PreferSelfHosted && g.selfHosted != nil {
		text, err := g.selfHosted.GenerateText(ctx, systemPrompt, userPrompt)
		if err == nil {
			return text, nil
		}
		slog.Warn("self-hosted model failed, retrying against primary", "err", err)
	}
	return g.primary.GenerateText(ctx, systemPrompt, userPrompt)
}
