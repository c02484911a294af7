package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"github.com/parivelss/tamil-voice-gateway/internal/config"
	"github.com/parivelss/tamil-voice-gateway/internal/conversation"
	"github.com/parivelss/tamil-voice-gateway/internal/httpserver"
	"github.com/parivelss/tamil-voice-gateway/internal/llm"
	"github.com/parivelss/tamil-voice-gateway/internal/provider"
	"github.com/parivelss/tamil-voice-gateway/internal/stt"
	"github.com/parivelss/tamil-voice-gateway/internal/translate"
	"github.com/parivelss/tamil-voice-gateway/internal/tts"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	root := &cobra.Command{
		Use:          "server",
		Short:        "Tamil voice gateway HTTP server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	if err := root.Execute(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()

	if prefix := os.Getenv("SSM_PARAMETER_PREFIX"); prefix != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Printf("config: aws setup failed, skipping ssm overlay: %v", err)
		} else if store, err := config.NewParamStore(ssm.NewFromConfig(awsCfg)); err == nil {
			cfg.ApplySSM(ctx, store, prefix)
		}
	}

	ctrl, err := buildController(ctx, cfg)
	if err != nil {
		return err
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	ctrl.Store.StartSweeper(sweepCtx, cfg.SweepInterval, cfg.SessionTTL)

	srv := httpserver.New(ctrl, cfg.MaxAudioBytes)
	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Echo,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
	return nil
}

func buildController(ctx context.Context, cfg config.Config) (*conversation.Controller, error) {
	translator := translate.NewGoogleTranslate(cfg.GoogleAPIKey)

	var rewriter translate.Rewriter
	if cfg.GeminiAPIKey != "" {
		colloquial, err := translate.NewGeminiColloquial(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Printf("translate: colloquial rewrite unavailable: %v", err)
		} else {
			rewriter = colloquial
		}
	}

	ttsProviders := map[string]provider.TextToSpeech{}
	if cfg.ElevenLabsAPIKey != "" {
		eleven := tts.NewElevenLabs(cfg.ElevenLabsAPIKey)
		eleven.Model = cfg.ElevenLabsModel
		eleven.VoiceTA = cfg.ElevenLabsVoiceTA
		eleven.VoiceEN = cfg.ElevenLabsVoiceEN
		ttsProviders["elevenlabs"] = tts.NewPipeline(eleven)
	}
	if cfg.DeepgramAPIKey != "" {
		ttsProviders["deepgram"] = tts.NewPipeline(tts.NewDeepgram(cfg.DeepgramAPIKey, ""))
	}
	defaultTTS := "elevenlabs"
	if _, ok := ttsProviders[defaultTTS]; !ok {
		defaultTTS = "deepgram"
	}

	return &conversation.Controller{
		STT: map[string]provider.SpeechToText{
			"sarvam":     stt.NewSarvam(cfg.SarvamAPIKey),
			"google":     stt.NewGoogle(cfg.GoogleAPIKey),
			"elevenlabs": stt.NewElevenLabs(cfg.ElevenLabsAPIKey),
		},
		DefaultSTT:  cfg.DefaultSTTProvider,
		FallbackSTT: "google",
		Detector:    translator,
		Router:      translate.NewRouter(translator, rewriter),
		TTS:         ttsProviders,
		DefaultTTS:  defaultTTS,
		Store:       conversation.NewStore(),
		Keywords:    conversation.DefaultSignalKeywords(),
		NewAgent: func(ctx context.Context, variant string) (llm.Agent, error) {
			switch variant {
			case "openai":
				return llm.NewOpenAIAgent(cfg.OpenAIAPIKey), nil
			default:
				return llm.NewGeminiAgent(ctx, cfg.GeminiAPIKey)
			}
		},
		DefaultVariant: cfg.DefaultLLMProvider,
	}, nil
}
