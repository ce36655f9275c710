package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string
	Env             string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	// ModelNames maps internal model keys to provider model identifiers.
	ModelNames map[string]string
	// ModelEncodings maps internal model keys to tokenizer encodings used
	// for usage accounting. A key absent here is an unsupported model.
	ModelEncodings map[string]string
	CostPerToken   float64

	RejectionKeywords []string

	TesseractPath string
	TesseractLang string
	RasterDPI     int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		DatabaseURL:     dbURL,
		Env:             env,

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		ModelNames: map[string]string{
			"chat-model-large":     getEnv("MODEL_LARGE", "gpt-4o"),
			"chat-model-small":     getEnv("MODEL_SMALL", "gpt-4o-mini"),
			"chat-model-reasoning": getEnv("MODEL_REASONING", "o3-mini"),
			"title-model":          getEnv("MODEL_TITLE", "gpt-4o-mini"),
			"block-model":          getEnv("MODEL_BLOCK", "gpt-4o-mini"),
		},
		ModelEncodings: map[string]string{
			"chat-model-large":     "cl100k_base",
			"chat-model-small":     "gpt2",
			"chat-model-reasoning": "cl100k_base",
			"title-model":          "gpt2",
			"block-model":          "gpt2",
		},
		CostPerToken: getFloat("COST_PER_TOKEN", 0.00002),

		RejectionKeywords: splitAndTrim(getEnv("REJECTION_KEYWORDS", "receipt,account statement")),

		TesseractPath: getEnv("TESSERACT_PATH", "tesseract"),
		TesseractLang: getEnv("TESSERACT_LANG", "eng"),
		RasterDPI:     getInt("RASTER_DPI", 300),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %g", key, raw, def)
		return def
	}
	return f
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
