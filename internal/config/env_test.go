package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"LEDGER_OUTBOX_MAX_ATTEMPTS=7\nLEDGER_OUTBOX_KEY=postings\nLEDGER_AGENT_CARD_TYPE=From File\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("LEDGER_OUTBOX_MAX_ATTEMPTS")
		os.Unsetenv("LEDGER_OUTBOX_KEY")
	})
	t.Setenv("LEDGER_AGENT_CARD_TYPE", "Corporate Card")

	LoadDotEnv(path)
	cfg := LoadLedgerConfig()

	assert.Equal(t, 7, cfg.OutboxMaxAttempts)
	assert.Equal(t, "postings", cfg.OutboxKey)
	assert.Equal(t, "Corporate Card", cfg.AgentCardType)
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"))

	assert.Equal(t, "ledger_outbox", LoadLedgerConfig().OutboxKey)
}
