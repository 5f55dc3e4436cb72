package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"emotlink/internal/app"
	"emotlink/internal/config"
	"emotlink/internal/server"
	"emotlink/internal/util"
	"emotlink/pkg/ai"
	"emotlink/pkg/auth"
	"emotlink/pkg/speech"
	"emotlink/pkg/store"
	"emotlink/pkg/transcript"
	"emotlink/pkg/verify"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	util.InitLogger(cfg.LogLevel)

	durable, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	transcripts := transcript.NewStore(cfg.RedisAddr, cfg.RedisPassword, transcript.DefaultTTL)
	verifier := verify.NewStore(cfg.RedisAddr, cfg.RedisPassword, verify.DefaultTTL)

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessions, err := auth.NewSessionManager(cfg.SessionSecret, sessionTTL)
	if err != nil {
		log.Fatalf("failed to init sessions: %v", err)
	}

	dialogue := ai.NewOpenAICompatGenerator(
		cfg.SolarBaseURL, cfg.SolarAPIKey, cfg.GenerationModel,
		ai.WithTemperature(0.5), ai.WithTopP(0.9),
	)
	synthesis := ai.NewOpenAICompatGenerator(
		cfg.SolarBaseURL, cfg.SolarAPIKey, cfg.GenerationModel,
		ai.WithTemperature(0.7),
	)
	var selfHosted ai.TextGenerator
	if cfg.SelfHostedBaseURL != "" {
		selfHosted = ai.NewOpenAICompatGenerator(
			cfg.SelfHostedBaseURL, cfg.SelfHostedAPIKey, cfg.SelfHostedModel,
			ai.WithTemperature(0.5), ai.WithTopP(0.9),
		)
	}
	gateway := ai.NewGateway(ai.GatewayConfig{
		Primary:    dialogue,
		Synthesis:  synthesis,
		SelfHosted: selfHosted,
	})

	appCore, err := app.New(app.Config{
		Store:            durable,
		Transcripts:      transcripts,
		Gateway:          gateway,
		Verifier:         verifier,
		PreferSelfHosted: selfHosted != nil,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	serverCfg := server.Config{
		App:           appCore,
		Sessions:      sessions,
		Verifier:      verifier,
		Sender:        verify.LogSender{},
		PublicBaseURL: cfg.PublicBaseURL,
	}
	if cfg.GoogleSTTKey != "" {
		transcriber, err := speech.NewTranscriber(cfg.GoogleSTTKey)
		if err != nil {
			log.Fatalf("failed to init transcriber: %v", err)
		}
		serverCfg.Transcriber = transcriber
	}
	if cfg.MinioEndpoint != "" {
		archive, err := speech.NewMinioArchive(
			cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			log.Fatalf("failed to init recording archive: %v", err)
		}
		serverCfg.Archive = archive
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.New(serverCfg).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("emotlink server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
