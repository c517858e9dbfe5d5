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
	Session  SessionConfig
	Stt      SttConfig
	Ai       AIConfig
	Keys     APIKeys
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	EventBus           string // "memory" or "nats"
	NatsURL            string
	RedisURL           string
	MenuEmbedTopic     string
}

type DatabaseConfig struct {
	Connection string
}

type SessionConfig struct {
	Backend    string // "memory" or "redis"
	TTLMinutes int
}

type SttConfig struct {
	Provider       string // "deepgram" or "azure"
	DeepgramAPIKey string
	DeepgramModel  string
	AzureKey       string
	AzureRegion    string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "jina"
	OllamaBaseURL     string
	OllamaEmbedModel  string
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string
	RerankProvider    string // "jina" or "tei"
	TeiRerankURL      string
	RerankFloor       float64
	DistanceThreshold float64
	MaxResults        int
	PipelineTimeoutS  int
}

type APIKeys struct {
	Jina   string
	OpenAI string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			EventBus:           getEnv("EVENT_BUS", "memory"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			MenuEmbedTopic:     getEnv("EMBED_MENU_ITEM_TOPIC_NAME", "EMBED_MENU_ITEM"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			Backend:    getEnv("SESSION_BACKEND", "memory"),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
		Stt: SttConfig{
			Provider:       getEnv("STT_PROVIDER", "deepgram"),
			DeepgramAPIKey: getEnv("DEEPGRAM_API_KEY", ""),
			DeepgramModel:  getEnv("DEEPGRAM_MODEL", "nova-2"),
			AzureKey:       getEnv("AZURE_SPEECH_KEY", ""),
			AzureRegion:    getEnv("AZURE_SPEECH_REGION", "westeurope"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			RerankProvider:    getEnv("RERANK_PROVIDER", "jina"),
			TeiRerankURL:      getEnv("TEI_RERANK_URL", "http://localhost:8080"),
			RerankFloor:       getEnvAsFloat("RERANK_SCORE_FLOOR", -8.0),
			DistanceThreshold: getEnvAsFloat("COSINE_DISTANCE_THRESHOLD", 0.8),
			MaxResults:        getEnvAsInt("MAX_SEARCH_RESULTS", 20),
			PipelineTimeoutS:  getEnvAsInt("PIPELINE_TIMEOUT_SECONDS", 30),
		},
		Keys: APIKeys{
			Jina:   getEnv("JINA_API_KEY", ""),
			OpenAI: getEnv("OPENAI_API_KEY", ""),
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
