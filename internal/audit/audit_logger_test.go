package audit

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogger_LogPosting(t *testing.T) {
	var lines []string
	logger := NewAuditLoggerWithSink(func(line string) { lines = append(lines, line) })

	logger.LogPosting("entry-1", "agent-1", "REF1", "debit", "500", "500")

	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "AUDIT: "))

	var event AuditEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[0], "AUDIT: ")), &event))
	assert.Equal(t, "POSTING", event.EventType)
	assert.Equal(t, "agent-1", event.EntityID)
	assert.Equal(t, "500", event.Amount)
}

func TestAuditLogger_LogError(t *testing.T) {
	var lines []string
	logger := NewAuditLoggerWithSink(func(line string) { lines = append(lines, line) })

	logger.LogError("ticket-1", "REF9", errors.New("connection reset"))

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"status":"FAILED"`)
	assert.Contains(t, lines[0], "connection reset")
}
