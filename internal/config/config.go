package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string

	SarvamAPIKey     string
	GoogleAPIKey     string
	GeminiAPIKey     string
	OpenAIAPIKey     string
	ElevenLabsAPIKey string
	DeepgramAPIKey   string

	ElevenLabsVoiceTA string
	ElevenLabsVoiceEN string
	ElevenLabsModel   string

	DefaultSTTProvider string
	DefaultLLMProvider string

	MaxAudioBytes int64
	SessionTTL    time.Duration
	SweepInterval time.Duration
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file, using process environment")
	}

	cfg := Config{
		HTTPAddress:        envOr("HTTP_ADDRESS", ":8080"),
		SarvamAPIKey:       os.Getenv("SARVAM_API_KEY"),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		ElevenLabsAPIKey:   os.Getenv("ELEVENLABS_API_KEY"),
		DeepgramAPIKey:     os.Getenv("DEEPGRAM_API_KEY"),
		ElevenLabsVoiceTA:  os.Getenv("ELEVENLABS_VOICE_TA"),
		ElevenLabsVoiceEN:  os.Getenv("ELEVENLABS_VOICE_EN"),
		ElevenLabsModel:    envOr("ELEVENLABS_MODEL", "eleven_multilingual_v2"),
		DefaultSTTProvider: envOr("DEFAULT_STT_PROVIDER", "sarvam"),
		DefaultLLMProvider: envOr("DEFAULT_LLM_PROVIDER", "gemini"),
		MaxAudioBytes:      envInt64("MAX_AUDIO_BYTES", 5<<20),
		SessionTTL:         envDuration("SESSION_TTL", 30*time.Minute),
		SweepInterval:      envDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
	}

	if cfg.SarvamAPIKey == "" {
		log.Println("Warning: SARVAM_API_KEY not set - primary transcription will not work")
	}
	if cfg.GoogleAPIKey == "" {
		log.Println("Warning: GOOGLE_API_KEY not set - fallback transcription and translation will not work")
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = cfg.GoogleAPIKey
	}
	if cfg.GeminiAPIKey == "" && cfg.OpenAIAPIKey == "" {
		log.Println("Warning: neither GEMINI_API_KEY nor OPENAI_API_KEY set - dialogue will not work")
	}
	if cfg.ElevenLabsAPIKey == "" && cfg.DeepgramAPIKey == "" {
		log.Println("Warning: neither ELEVENLABS_API_KEY nor DEEPGRAM_API_KEY set - speech synthesis will not work")
	}

	log.Printf("config: HTTP_ADDRESS=%s stt=%s llm=%s", cfg.HTTPAddress, cfg.DefaultSTTProvider, cfg.DefaultLLMProvider)
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}
