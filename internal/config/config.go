package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string
	HeatmapTTL time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "pixelboard_user"),
		DBPassword: getEnv("DB_PASSWORD", "pixelboard_pass"),
		DBName:     getEnv("DB_NAME", "pixelboard_db"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		HeatmapTTL: time.Duration(getEnvInt("HEATMAP_TTL_HOURS", 24)) * time.Hour,
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("⚠️  Invalid value for %s, using default %d", key, defaultVal)
	}
	return defaultVal
}
