package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	JWTSecret       string

	Backend       string
	DatabaseURL   string
	BackendURL    string
	BackendAPIKey string
	BackendRPS    float64

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	ExportQueueURL  string

	AIProvider   string
	AIModel      string
	OpenAIAPIKey string
	GeminiAPIKey string

	DraftsPath           string
	DraftAutosaveDelay   time.Duration
	DraftFreshnessWindow time.Duration

	BulkSaveConcurrency int
	RateLimitRPS        float64
	RateLimitBurst      int
}

// Load reads configuration from environment variables with sensible defaults.
// Values from CONFIG_FILE (TOML) act as defaults that the environment overrides.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Printf("config file ignored: %v", err)
	}
	get := func(key, def string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		if val, ok := file[key]; ok && val != "" {
			return val
		}
		return def
	}

	env := normalizeEnv(get("ENV", "dev"))
	dbURL := get("DATABASE_URL", "")
	backend := normalizeBackend(get("BACKEND", ""), dbURL)

	if env == "production" && backend == "memory" {
		log.Printf("BACKEND=memory is not durable; set DATABASE_URL or BACKEND_URL in production")
	}

	return Config{
		Port:            get("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(get("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		JWTSecret:       get("JWT_SECRET", ""),

		Backend:       backend,
		DatabaseURL:   dbURL,
		BackendURL:    get("BACKEND_URL", ""),
		BackendAPIKey: get("BACKEND_API_KEY", ""),
		BackendRPS:    parseFloat(get("BACKEND_RPS", "10"), 10),

		ObjectStoreType: normalizeStoreType(get("OBJECT_STORE", "local")),
		LocalStoreDir:   get("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       get("AWS_REGION", ""),
		S3Bucket:        get("S3_BUCKET", ""),
		S3Prefix:        get("S3_PREFIX", ""),
		SSEKMSKeyID:     get("SSE_KMS_KEY_ID", ""),
		ExportQueueURL:  get("EXPORT_QUEUE_URL", ""),

		AIProvider:   normalizeAIProvider(get("AI_PROVIDER", "none")),
		AIModel:      get("AI_MODEL", ""),
		OpenAIAPIKey: get("OPENAI_API_KEY", ""),
		GeminiAPIKey: get("GEMINI_API_KEY", ""),

		DraftsPath:           get("DRAFTS_PATH", ""),
		DraftAutosaveDelay:   parseDuration(get("DRAFT_AUTOSAVE_DELAY", "2s"), 2*time.Second),
		DraftFreshnessWindow: parseDuration(get("DRAFT_FRESHNESS_WINDOW", "24h"), 24*time.Hour),

		BulkSaveConcurrency: parseInt(get("BULK_SAVE_CONCURRENCY", "4"), 4),
		RateLimitRPS:        parseFloat(get("RATE_LIMIT_RPS", "5"), 5),
		RateLimitBurst:      parseInt(get("RATE_LIMIT_BURST", "20"), 20),
	}
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

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// normalizeBackend falls back to postgres when only DATABASE_URL is set.
func normalizeBackend(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "rest", "postgrest":
		return "rest"
	case "memory":
		return "memory"
	}
	if dbURL != "" {
		return "postgres"
	}
	return "memory"
}

func normalizeAIProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "gemini", "google":
		return "gemini"
	default:
		return "none"
	}
}

func parseInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseFloat(raw string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func parseDuration(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
