package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ZendeskSubdomain string
	ZendeskEmail     string
	ZendeskToken     string
	FetchLimit       int
	OpenAIAPIKey     string
	VectorStoreID    string
	IndexPath        string
	StatePath        string
	DeleteRemoved    bool
	MetricsAddr      string
	SlackWebhookURL  string
	LogLevel         string
	LogFormat        string
	Environment      string
}

func Load() *Config {
	return &Config{
		ZendeskSubdomain: os.Getenv("ZENDESK_SUBDOMAIN"),
		ZendeskEmail:     os.Getenv("ZENDESK_EMAIL"),
		ZendeskToken:     os.Getenv("ZENDESK_TOKEN"),
		FetchLimit:       getEnvInt("FETCH_LIMIT", 0),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		VectorStoreID:    os.Getenv("VECTOR_STORE_ID"),
		IndexPath:        getEnvOrDefault("INDEX_PATH", "article_index.json"),
		StatePath:        getEnvOrDefault("STATE_PATH", "assistant_state.json"),
		DeleteRemoved:    getEnvBool("DELETE_REMOVED", false),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
		SlackWebhookURL:  os.Getenv("SLACK_WEBHOOK_URL"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "INFO"),
		LogFormat:        getEnvOrDefault("LOG_FORMAT", "text"),
		Environment:      getEnvOrDefault("ENVIRONMENT", "development"),
	}
}

func (c *Config) Validate() error {
	var problems []string

	if c.ZendeskSubdomain == "" {
		problems = append(problems, "ZENDESK_SUBDOMAIN is required")
	}

	if c.OpenAIAPIKey == "" {
		problems = append(problems, "OPENAI_API_KEY is required")
	}

	// Source credentials are optional, but must come as a pair
	if (c.ZendeskEmail == "") != (c.ZendeskToken == "") {
		problems = append(problems, "ZENDESK_EMAIL and ZENDESK_TOKEN must be set together")
	}

	if c.FetchLimit < 0 {
		problems = append(problems, "FETCH_LIMIT must be zero or positive")
	}

	if c.IndexPath == "" {
		problems = append(problems, "INDEX_PATH must not be empty")
	}

	if c.StatePath == "" {
		problems = append(problems, "STATE_PATH must not be empty")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if !contains(validLogLevels, strings.ToUpper(c.LogLevel)) {
		problems = append(problems, "LOG_LEVEL must be one of: DEBUG, INFO, WARN, ERROR")
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		problems = append(problems, "LOG_FORMAT must be one of: text, json")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}

	return nil
}

// Authenticated reports whether source fetches should send API credentials.
func (c *Config) Authenticated() bool {
	return c.ZendeskEmail != "" && c.ZendeskToken != ""
}

func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Environment) == "development"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s is not an integer, using default %d\n", key, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
