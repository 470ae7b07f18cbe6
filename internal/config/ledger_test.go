package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadLedgerConfig_Defaults(t *testing.T) {
	cfg := LoadLedgerConfig()

	assert.Equal(t, "ledger_outbox", cfg.OutboxKey)
	assert.Equal(t, 5, cfg.OutboxMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.OutboxPollTimeout)
	assert.Equal(t, "Agent Card", cfg.AgentCardType)
}

func TestLoadLedgerConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_OUTBOX_MAX_ATTEMPTS", "9")
	t.Setenv("LEDGER_OUTBOX_POLL_TIMEOUT", "250ms")
	t.Setenv("LEDGER_DEFAULT_PAGE_SIZE", "not-a-number")

	cfg := LoadLedgerConfig()

	assert.Equal(t, 9, cfg.OutboxMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollTimeout)
	assert.Equal(t, 10, cfg.DefaultPageSize)
}
