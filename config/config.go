package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the ReefWatch backend
type Config struct {
	Server     ServerConfig
	MQTT       MQTTConfig
	Database   DatabaseConfig
	Assessment AssessmentConfig
	Files      FilesConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled       bool
	BrokerURL     string
	ClientID      string
	Username      string
	Password      string
	KeepAlive     time.Duration
	PingTimeout   time.Duration
	ConnectRetry  bool
	TopicReadings string
	TopicAlerts   string
}

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AssessmentConfig holds the tuning knobs for the assessment pipeline
// and the background services around it.
type AssessmentConfig struct {
	Interval      time.Duration // how often the monitor assesses every tank
	TrendWindow   int           // trailing readings the trend fit considers
	LookbackDays  int           // event causal-relevance window for diagnosis
	RetentionDays int           // readings/events/reports older than this are pruned
	MaxReadings   int           // per-tank cap for the in-memory store
}

// FilesConfig holds optional YAML override files. Empty or missing paths
// mean the built-in defaults are used.
type FilesConfig struct {
	Ranges   string
	Rules    string
	Scenario string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{"*"}),
		},
		MQTT: MQTTConfig{
			Enabled:       getBoolEnv("MQTT_ENABLED", false),
			BrokerURL:     getMQTTBrokerURL(),
			ClientID:      getEnv("MQTT_CLIENT_ID", "reefwatch_backend"),
			Username:      getEnv("MQTT_USERNAME", ""),
			Password:      getEnv("MQTT_PASSWORD", ""),
			KeepAlive:     getDurationEnv("MQTT_KEEP_ALIVE", 30*time.Second),
			PingTimeout:   getDurationEnv("MQTT_PING_TIMEOUT", 10*time.Second),
			ConnectRetry:  getBoolEnv("MQTT_CONNECT_RETRY", true),
			TopicReadings: getEnv("MQTT_TOPIC_READINGS", "reefwatch/tanks/+/readings"),
			TopicAlerts:   getEnv("MQTT_TOPIC_ALERTS", "reefwatch/tanks/%s/alerts"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "reefwatch"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
		},
		Assessment: AssessmentConfig{
			Interval:      getDurationEnv("ASSESSMENT_INTERVAL", 5*time.Minute),
			TrendWindow:   getIntEnv("TREND_WINDOW", 7),
			LookbackDays:  getIntEnv("EVENT_LOOKBACK_DAYS", 30),
			RetentionDays: getIntEnv("RETENTION_DAYS", 365),
			MaxReadings:   getIntEnv("MAX_READINGS", 1000),
		},
		Files: FilesConfig{
			Ranges:   getEnv("RANGES_FILE", ""),
			Rules:    getEnv("RULES_FILE", ""),
			Scenario: getEnv("SCENARIO_FILE", ""),
		},
	}
}

// getEnv returns environment variable value or default if not set
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv returns duration environment variable value or default if not set
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getBoolEnv returns boolean environment variable value or default if not set
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getIntEnv returns integer environment variable value or default if not set
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getListEnv returns a comma-separated environment variable as a slice
// or default if not set
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getMQTTBrokerURL returns MQTT broker URL with tcp:// prefix if not present
// Supports both "localhost:1883" and "tcp://localhost:1883" formats
func getMQTTBrokerURL() string {
	broker := getEnv("MQTT_BROKER", getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"))

	if broker != "" && !strings.HasPrefix(broker, "tcp:") && !strings.HasPrefix(broker, "ssl") {
		return "tcp://" + broker
	}
	return broker
}
