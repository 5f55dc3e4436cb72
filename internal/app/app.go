package app

import (
	"context"
	"fmt"

	"emotlink/pkg/ai"
	"emotlink/pkg/store"
	"emotlink/pkg/transcript"
	"emotlink/pkg/verify"
)

// ModelGateway is the slice of the language-model gateway the
// application core depends on.
type ModelGateway interface {
	DialogueTurn(ctx context.Context, systemPrompt, userPrompt string, choice ai.ModelChoice) ai.Turn
	Synthesize(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config wires the application's collaborators.
type Config struct {
	Store       store.Store
	Transcripts *transcript.Store
	Gateway     ModelGateway
	// Verifier is optional; without it signup skips the email
	// verification token check.
	Verifier *verify.Store
	// PreferSelfHosted routes dialogue turns through the self-hosted
	// model first. Diary synthesis always uses the hosted model.
	PreferSelfHosted bool
}

// App is the application core: dialogue control, diary synthesis,
// emotion analytics, links, and accounts.
type App struct {
	store          store.Store
	transcripts    *transcript.Store
	gateway        ModelGateway
	verifier       *verify.Store
	dialogueChoice ai.ModelChoice
}

// New constructs the application core.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Transcripts == nil {
		return nil, fmt.Errorf("transcript store required")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("model gateway required")
	}
	choice := ai.PrimaryOnly
	if cfg.PreferSelfHosted {
		choice = ai.PreferSelfHosted
	}
	return &App{
		store:          cfg.Store,
		transcripts:    cfg.Transcripts,
		gateway:        cfg.Gateway,
		verifier:       cfg.Verifier,
		dialogueChoice: choice,
	}, nil
}
