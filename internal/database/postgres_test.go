package database

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestGetConfig(t *testing.T) {
	viper.Set("database.host", "db.internal")
	viper.Set("database.name", "ledger_test")
	defer viper.Reset()

	config := GetConfig()

	assert.Equal(t, "db.internal", config.Host)
	assert.Equal(t, "5432", config.Port)
	assert.Equal(t, "ledger_test", config.Name)
	assert.Equal(t, "disable", config.SSLMode)
	assert.Equal(t, 25, config.MaxOpenConns)
	assert.Equal(t,
		"host=db.internal port=5432 user=postgres password=password dbname=ledger_test sslmode=disable",
		config.DSN())
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := embedMigrations.ReadDir("migrations")
	assert.NoError(t, err)
	assert.Len(t, entries, 2)

	ledger, err := embedMigrations.ReadFile("migrations/00001_ledger.sql")
	assert.NoError(t, err)
	assert.Contains(t, string(ledger), "-- +goose Up")
	assert.Contains(t, string(ledger), "CREATE TABLE IF NOT EXISTS entity_balances")
}

func columnType(t *testing.T, file, table, column string) string {
	t.Helper()
	data, err := embedMigrations.ReadFile("migrations/" + file)
	if err != nil {
		t.Fatalf("read %s: %v", file, err)
	}

	block := regexp.MustCompile(fmt.Sprintf(`(?s)CREATE TABLE IF NOT EXISTS %s \((.*?)\n\);`, table)).FindSubmatch(data)
	if block == nil {
		t.Fatalf("table %s not found in %s", table, file)
	}
	col := regexp.MustCompile(fmt.Sprintf(`(?m)^\s+%s\s+(\w+)`, column)).FindSubmatch(block[1])
	if col == nil {
		t.Fatalf("column %s.%s not found", table, column)
	}
	return string(col[1])
}

// Entity ids are compared and joined across these tables, so they share a type.
func TestMigrations_EntityIDColumnsAreText(t *testing.T) {
	assert.Equal(t, "TEXT", columnType(t, "00001_ledger.sql", "ledger_entries", "entity_id"))
	assert.Equal(t, "TEXT", columnType(t, "00001_ledger.sql", "ledger_entries", "ticket_id"))
	assert.Equal(t, "TEXT", columnType(t, "00001_ledger.sql", "entity_balances", "entity_id"))
	assert.Equal(t, "TEXT", columnType(t, "00002_tickets.sql", "agents", "id"))
	assert.Equal(t, "TEXT", columnType(t, "00002_tickets.sql", "tickets", "id"))
	assert.Equal(t, "TEXT", columnType(t, "00002_tickets.sql", "tickets", "agent_id"))
}
