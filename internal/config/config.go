package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// AppConfig holds everything the service reads from the environment.
type AppConfig struct {
	// MQTT ingress.
	MQTTBroker   string `validate:"required"`
	MQTTClientID string `validate:"required"`
	MQTTTopic    string `validate:"required"`

	// Record store. Empty means the in-memory store (local runs, tests).
	PostgresURL string

	// Google Sheets sink. Leave SpreadsheetID empty to run without a sink.
	SpreadsheetID    string
	SpreadsheetRange string `validate:"required_with=SpreadsheetID"`
	CredentialsFile  string `validate:"required_with=SpreadsheetID"`

	// Sink filter and periodic reconciliation (0 disables the job).
	CO2Threshold float64
	SyncInterval time.Duration

	// Optional Redis mirror of the latest reading.
	RedisAddr string

	Port string `validate:"required"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is fine; env vars may come from the runtime.
	_ = godotenv.Load()

	cfg := &AppConfig{
		MQTTBroker:       getenvDefault("MQTT_BROKER", "tcp://test.mosquitto.org:1883"),
		MQTTClientID:     getenvDefault("MQTT_CLIENT_ID", "medidor"),
		MQTTTopic:        getenvDefault("MQTT_TOPIC", "projeto_integrado/SENAI134/Cienciadedados/GrupoX"),
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		SpreadsheetID:    os.Getenv("SPREADSHEET_ID"),
		SpreadsheetRange: getenvDefault("SPREADSHEET_RANGE", "Registro!A1"),
		CredentialsFile:  getenvDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		Port:             getenvDefault("PORT", "5000"),
	}

	cfg.CO2Threshold = getenvFloat("CO2_THRESHOLD", 20)

	intervalStr := getenvDefault("SYNC_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	cfg.SyncInterval = interval

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}
