package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Rag      RagConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini       string
	ContentIngestTopic string // NATS subject carrying new content items
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "gemini"
	LLMModel          string // e.g. "llama3", "gemini-2.0-flash"
	LLMMaxRetries     int
	EmbedMaxRetries   int
	EmbedCacheTTLMins int
}

// RagConfig carries the retrieval and conversation tunables.
type RagConfig struct {
	MinSimilarity      float64
	PerTypeLimit       int
	GlobalLimit        int
	KeywordBoost       float64
	MaxBoostedKeywords int
	MaxContextItems    int
	WindowSize         int
	SessionTTLMins     int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini:       getEnv("GOOGLE_GEMINI_API_KEY", ""),
			ContentIngestTopic: getEnv("CONTENT_INGEST_TOPIC_NAME", "brand.content.ingested"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:          getEnv("LLM_MODEL", "gemini-2.0-flash"),
			LLMMaxRetries:     getEnvAsInt("LLM_MAX_RETRIES", 3),
			EmbedMaxRetries:   getEnvAsInt("EMBED_MAX_RETRIES", 3),
			EmbedCacheTTLMins: getEnvAsInt("EMBED_CACHE_TTL_MINS", 24*60),
		},
		Rag: RagConfig{
			MinSimilarity:      getEnvAsFloat("RAG_MIN_SIMILARITY", 0.5),
			PerTypeLimit:       getEnvAsInt("RAG_PER_TYPE_LIMIT", 10),
			GlobalLimit:        getEnvAsInt("RAG_GLOBAL_LIMIT", 10),
			KeywordBoost:       getEnvAsFloat("RAG_KEYWORD_BOOST", 0.15),
			MaxBoostedKeywords: getEnvAsInt("RAG_MAX_BOOSTED_KEYWORDS", 3),
			MaxContextItems:    getEnvAsInt("RAG_MAX_CONTEXT_ITEMS", 10),
			WindowSize:         getEnvAsInt("RAG_WINDOW_SIZE", 3),
			SessionTTLMins:     getEnvAsInt("RAG_SESSION_TTL_MINS", 120),
		},
	}
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
