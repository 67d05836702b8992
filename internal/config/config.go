package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port             string
	MongoURI         string
	MongoDatabase    string
	RabbitMQURI      string
	RabbitMQExchange string
	FEAddress        string

	EvictionHour       int
	EvictionRetention  int
	EvictionBatchSize  int
	EvictionWorkers    int
	GraduationAttempts int
	FailurePenalty     float64
	MinConfidence      float64
	MaxConfidence      float64
}

func New() *Config {
	return &Config{
		Port:             getEnv("PORT", "9200"),
		MongoURI:         getEnv("MONGO_URI", ""),
		MongoDatabase:    getEnv("MONGO_DATABASE", "review_service"),
		RabbitMQURI:      getEnv("RABBITMQ_URI", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", ""),
		FEAddress:        getEnv("FE_ADDR", "http://localhost:3000"),

		EvictionHour:       getEnvInt("EVICTION_HOUR", 2),
		EvictionRetention:  getEnvInt("EVICTION_RETENTION_DAYS", 7),
		EvictionBatchSize:  getEnvInt("EVICTION_BATCH_SIZE", 500),
		EvictionWorkers:    getEnvInt("EVICTION_WORKERS", 4),
		GraduationAttempts: getEnvInt("SRS_GRADUATION_THRESHOLD", 5),
		FailurePenalty:     getEnvFloat("SRS_FAILURE_PENALTY", 0.20),
		MinConfidence:      getEnvFloat("SRS_MIN_CONFIDENCE", 1.3),
		MaxConfidence:      getEnvFloat("SRS_MAX_CONFIDENCE", 2.5),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid value for %s: %s, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("invalid value for %s: %s, using %g", key, value, fallback)
		return fallback
	}
	return f
}
