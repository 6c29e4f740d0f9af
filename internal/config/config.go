package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                 string
	DatabaseURL          string
	QuestionTime         time.Duration
	RoomIdleTTL          time.Duration
	DefaultMaxPlayers    int
	DefaultQuestionCount int
	QuestionsFile        string
	LogLevel             string
	LogFormat            string
	SubmitRate           float64 // per second, per player
	SubmitBurst          int
	PersistTimeout       time.Duration
}

// Load reads the environment, after filling it from a .env file when one
// exists. Variables already set win over the file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:                 getEnv("PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		QuestionTime:         time.Duration(getEnvInt("QUESTION_TIME", 30)) * time.Second,
		RoomIdleTTL:          getEnvDuration("ROOM_IDLE_TTL", time.Hour),
		DefaultMaxPlayers:    getEnvInt("DEFAULT_MAX_PLAYERS", 6),
		DefaultQuestionCount: getEnvInt("DEFAULT_QUESTION_COUNT", 10),
		QuestionsFile:        os.Getenv("QUESTIONS_FILE"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		SubmitRate:           getEnvFloat("SUBMIT_RATE", 2),
		SubmitBurst:          getEnvInt("SUBMIT_BURST", 4),
		PersistTimeout:       getEnvDuration("PERSIST_TIMEOUT", 2*time.Second),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
