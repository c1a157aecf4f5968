package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Services      ServicesConfig
	Ai            AIConfig
	Orchestration OrchestrationConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	HubLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string // empty disables auth on orchestration routes
}

type DatabaseConfig struct {
	Connection string
}

type ServicesConfig struct {
	DocumentServiceURL string
	WrapperURL         string
}

type AIConfig struct {
	LLMProvider string // "gemini", "huggingface" or "ollama"
	LLMModel    string
	LLMBaseURL  string
	APIKeys     []string
}

type OrchestrationConfig struct {
	LLMCallTimeout   time.Duration
	ActionTimeout    time.Duration
	DocumentTimeout  time.Duration
	PlanningAttempts int
	ContextCacheTTL  time.Duration
	ResultTTL        time.Duration
	DefaultAgentID   string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "orchestrator.log"),
			HubLogFilePath:     getEnv("HUB_LOG_FILE_PATH", "hub.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Services: ServicesConfig{
			DocumentServiceURL: strings.TrimRight(getEnv("DOCUMENT_SERVICE_URL", "http://localhost:8080"), "/"),
			WrapperURL:         strings.TrimRight(getEnv("WRAPPER_URL", "http://localhost:8002"), "/"),
		},
		Ai: AIConfig{
			LLMProvider: getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:    getEnv("LLM_MODEL", ""),
			LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
			APIKeys:     getEnvAsList("LLM_API_KEYS", nil),
		},
		Orchestration: OrchestrationConfig{
			LLMCallTimeout:   getEnvAsDuration("LLM_CALL_TIMEOUT", 60*time.Second),
			ActionTimeout:    getEnvAsDuration("ACTION_TIMEOUT", 90*time.Second),
			DocumentTimeout:  getEnvAsDuration("DOCUMENT_TIMEOUT", 30*time.Second),
			PlanningAttempts: getEnvAsInt("PLANNING_ATTEMPTS", 3),
			ContextCacheTTL:  getEnvAsDuration("CONTEXT_CACHE_TTL", 5*time.Minute),
			ResultTTL:        getEnvAsDuration("RESULT_TTL", 24*time.Hour),
			DefaultAgentID:   getEnv("DEFAULT_AGENT_ID", "orchestration-agent"),
		},
	}
}

// Credentials returns the key list the rotator cycles through.
// Ollama needs no key, so it gets a single empty credential.
func (c AIConfig) Credentials() []string {
	if len(c.APIKeys) == 0 && c.LLMProvider == "ollama" {
		return []string{""}
	}
	return c.APIKeys
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
