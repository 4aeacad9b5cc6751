// Package config loads client configuration from the environment and
// wires up logging.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// LLM
	LLMProvider     Provider
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string

	// Embedding (note search)
	EmbeddingModel string

	// SurrealDB connection (thought soil)
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Roster
	RosterPath string

	// Conversation window fed to the model
	WindowSize int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".ensemble")

	return Config{
		// LLM
		LLMProvider:     Provider(getEnv("ENSEMBLE_LLM_PROVIDER", string(ProviderOllama))),
		LLMModel:        getEnv("ENSEMBLE_LLM_MODEL", "llama3.2"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),

		// Embedding
		EmbeddingModel: getEnv("ENSEMBLE_EMBEDDING_MODEL", "all-minilm:l6-v2"),

		// SurrealDB
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "ensemble"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "soil"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		// Roster
		RosterPath: getEnv("ENSEMBLE_ROSTER", filepath.Join(stateDir, "personas.yaml")),

		// Window
		WindowSize: getEnvInt("ENSEMBLE_WINDOW", 40),

		// Logging
		LogFile:  getEnv("ENSEMBLE_LOG_FILE", filepath.Join(stateDir, "ensemble.log")),
		LogLevel: parseLogLevel(getEnv("ENSEMBLE_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
