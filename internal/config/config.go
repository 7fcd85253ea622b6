package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	CoreDatabaseURL string
	HTTPListenAddr  string
	LogLevel        string
	ServiceName     string

	// SSH credentials used for node stats collection and config backups.
	SSHUser           string
	SSHKeyPath        string
	SSHTimeoutSeconds int

	// LLM settings for network analysis jobs. An empty model means no AI
	// backend is configured and network_analysis jobs are skipped.
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// PVEVerifyTLS controls certificate verification against the
	// virtualization control-plane API. Self-signed certs are the norm on
	// fresh hypervisor installs, so this defaults to off.
	PVEVerifyTLS bool
}

func Load() (*Config, error) {
	cfg := &Config{
		CoreDatabaseURL:   getEnv("CORE_DATABASE_URL", ""),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8090"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServiceName:       getEnv("SERVICE_NAME", "fleet-api"),
		SSHUser:           getEnv("SSH_USER", "root"),
		SSHKeyPath:        getEnv("SSH_KEY_PATH", ""),
		SSHTimeoutSeconds: getEnvInt("SSH_TIMEOUT_SECONDS", 30),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMModel:          getEnv("LLM_MODEL", ""),
		PVEVerifyTLS:      getEnvBool("PVE_VERIFY_TLS", false),
	}

	return cfg, nil
}

// Validate checks that the required settings for the given entry point are
// present.
func (c *Config) Validate(service string) error {
	if c.CoreDatabaseURL == "" {
		return fmt.Errorf("%s: CORE_DATABASE_URL is required", service)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
