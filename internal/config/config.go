package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	OpenAIAPIKey          string
	OpenAIModel           string
	OpenAIBaseURL         string
	DeepLAPIKey           string
	DeepLBaseURL          string
	DefaultDirectory      string
	DefaultTargetLanguage string
	FileExtensions        []string
	BatchSize             int
	WorkerCount           int
	MaxRequestsPerSecond  float64
	OutputDir             string
	DatabaseURL           string
	Neo4jURI              string
	Neo4jUser             string
	Neo4jPassword         string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	return &Config{
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		DeepLAPIKey:           getEnv("DEEPL_API_KEY", ""),
		DeepLBaseURL:          getEnv("DEEPL_BASE_URL", "https://api-free.deepl.com/v2/translate"),
		DefaultDirectory:      getEnv("DEFAULT_DIRECTORY", "."),
		DefaultTargetLanguage: getEnv("DEFAULT_TARGET_LANGUAGE", "FR"),
		FileExtensions:        getEnvList("FILE_EXTENSIONS", []string{".js", ".jsx", ".ts", ".tsx", ".html", ".vue", ".py"}),
		BatchSize:             getEnvInt("BATCH_SIZE", 30),
		WorkerCount:           getEnvInt("WORKER_COUNT", 1),
		MaxRequestsPerSecond:  getEnvFloat("MAX_REQUESTS_PER_SECOND", 5),
		OutputDir:             getEnv("OUTPUT_DIR", "."),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		Neo4jURI:              getEnv("NEO4J_URI", ""),
		Neo4jUser:             getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:         getEnv("NEO4J_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer, using default")
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid number, using default")
		return fallback
	}
	return f
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
