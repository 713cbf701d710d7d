// voxrelay: realtime conversational relay server.
// Bridges WebSocket/REST clients to streaming text-generation backends
// with speech transcription and synthesis.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voxrelay/voxrelay/internal/config"
	"github.com/voxrelay/voxrelay/internal/log"
	"github.com/voxrelay/voxrelay/pkg/hub"
	"github.com/voxrelay/voxrelay/pkg/inference"
	"github.com/voxrelay/voxrelay/pkg/relay"
	"github.com/voxrelay/voxrelay/pkg/server"
	"github.com/voxrelay/voxrelay/pkg/session"
	"github.com/voxrelay/voxrelay/pkg/speech"
)

var version = "1.0.0"

func main() {
	// Optional; real deployments use environment variables directly.
	godotenv.Load()

	cfg := config.Load()
	log.Init(cfg.LogLevel)
	log.Info("voxrelay starting", "version", version, "port", cfg.Port)

	if cfg.PresharedKey == "" {
		log.Warn("RELAY_API_KEY is not set; authentication is disabled")
	}

	primary, secondary := buildProviders(cfg)
	defer primary.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewManager(session.Defaults{
		ModelID: cfg.PrimaryModel,
		Voice:   session.DefaultVoice(cfg.DefaultVoice),
	})
	sessions.StartSweeper(ctx, cfg.SessionTTL)

	monitor := hub.New()
	go monitor.Run(ctx)

	ropts := relay.Options{
		Sessions:  sessions,
		Primary:   primary,
		Secondary: secondary,
		Observer:  monitor,
	}

	if cfg.GoogleAPIKey != "" {
		stt, err := speech.NewGoogleTranscriber(speech.WithAPIKey(cfg.GoogleAPIKey))
		if err != nil {
			log.Error("speech-to-text init failed", "error", err)
			os.Exit(1)
		}
		tts, err := speech.NewGoogleSynthesizer(speech.WithAPIKey(cfg.GoogleAPIKey))
		if err != nil {
			log.Error("text-to-speech init failed", "error", err)
			os.Exit(1)
		}
		ropts.Transcriber = stt
		ropts.Synthesizer = tts
	} else {
		log.Warn("GOOGLE_API_KEY is not set; speech input and output are disabled")
	}

	srv := server.New(server.Options{
		Relay:        relay.New(ropts),
		Monitor:      monitor,
		Synthesizer:  ropts.Synthesizer,
		PresharedKey: cfg.PresharedKey,
		DefaultVoice: cfg.DefaultVoice,
	})

	go func() {
		if err := srv.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.App().ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("stopped")
}

// buildProviders wires the text-generation backends. The primary is the
// OpenAI-compatible client, chained to fall back on Gemini when both
// are configured; the secondary is Gemini alone.
func buildProviders(cfg *config.Config) (inference.Provider, inference.Provider) {
	clientOpts := []inference.Option{
		inference.WithAPIKey(cfg.OpenAIAPIKey),
		inference.WithModel(cfg.PrimaryModel),
	}
	if cfg.OpenAIBaseURL != "" {
		clientOpts = append(clientOpts, inference.WithBaseURL(cfg.OpenAIBaseURL))
	}
	client, err := inference.NewClient(clientOpts...)
	if err != nil {
		log.Error("primary backend init failed", "error", err)
		os.Exit(1)
	}

	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is not set; secondary backend is disabled")
		return client, nil
	}

	gemini, err := inference.NewGemini(
		inference.WithAPIKey(cfg.GeminiAPIKey),
		inference.WithModel(cfg.GeminiModel),
	)
	if err != nil {
		log.Error("secondary backend init failed", "error", err)
		os.Exit(1)
	}

	primary, err := inference.NewChain(client, gemini)
	if err != nil {
		log.Error("provider chain init failed", "error", err)
		os.Exit(1)
	}
	return primary, gemini
}
