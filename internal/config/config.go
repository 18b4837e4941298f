package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит настройки приложения
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	OrgHierarchy OrgHierarchyConfig
	Search       SearchConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// OrgHierarchyConfig - настройки клиента внешнего сервиса оргиерархии
type OrgHierarchyConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SearchConfig - параметры нечёткого поиска. Передаются индексу явно,
// никакого глобального состояния модуля
type SearchConfig struct {
	Threshold      float64
	ResultLimit    int
	MinQueryLength int
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "talentgrid"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		OrgHierarchy: OrgHierarchyConfig{
			BaseURL: getEnv("ORG_HIERARCHY_URL", "http://localhost:8090"),
			Timeout: getEnvDuration("ORG_HIERARCHY_TIMEOUT", 5*time.Second),
		},
		Search: SearchConfig{
			Threshold:      getEnvFloat("SEARCH_THRESHOLD", 0.25),
			ResultLimit:    getEnvInt("SEARCH_RESULT_LIMIT", 10),
			MinQueryLength: getEnvInt("SEARCH_MIN_QUERY_LENGTH", 2),
		},
	}
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt возвращает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat возвращает вещественное значение переменной окружения
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration возвращает длительность из переменной окружения
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
