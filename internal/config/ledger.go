package config

import (
	"os"
	"strconv"
	"time"
)

type LedgerConfig struct {
	OutboxKey         string
	OutboxDeadKey     string
	OutboxMaxAttempts int
	OutboxPollTimeout time.Duration
	DefaultPageSize   int
	MaxPageSize       int
	AgentCardType     string
	EventsSubject     string
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		OutboxKey:         getEnv("LEDGER_OUTBOX_KEY", "ledger_outbox"),
		OutboxDeadKey:     getEnv("LEDGER_OUTBOX_DEAD_KEY", "ledger_outbox:dead"),
		OutboxMaxAttempts: getEnvAsInt("LEDGER_OUTBOX_MAX_ATTEMPTS", 5),
		OutboxPollTimeout: getEnvAsDuration("LEDGER_OUTBOX_POLL_TIMEOUT", 5*time.Second),
		DefaultPageSize:   getEnvAsInt("LEDGER_DEFAULT_PAGE_SIZE", 10),
		MaxPageSize:       getEnvAsInt("LEDGER_MAX_PAGE_SIZE", 100),
		AgentCardType:     getEnv("LEDGER_AGENT_CARD_TYPE", "Agent Card"),
		EventsSubject:     getEnv("LEDGER_EVENTS_SUBJECT", "ledger.entry.recorded"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
