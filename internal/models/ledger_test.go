package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionType_Apply(t *testing.T) {
	balance := decimal.NewFromInt(100)
	amount := decimal.NewFromInt(40)

	assert.True(t, decimal.NewFromInt(140).Equal(Debit.Apply(balance, amount)))
	assert.True(t, decimal.NewFromInt(60).Equal(Credit.Apply(balance, amount)))
	assert.True(t, balance.Equal(NoEffect.Apply(balance, amount)))
}

func TestParseEntityKind(t *testing.T) {
	kind, err := ParseEntityKind("Agent")
	assert.NoError(t, err)
	assert.Equal(t, EntityAgent, kind)

	_, err = ParseEntityKind("Client")
	assert.Error(t, err)
}

func TestParseTransactionType(t *testing.T) {
	for _, s := range []string{"debit", "credit", "no-effect"} {
		_, err := ParseTransactionType(s)
		assert.NoError(t, err, s)
	}

	_, err := ParseTransactionType("refund")
	assert.Error(t, err)
}

func TestTicket_LedgerEntity(t *testing.T) {
	agent := "agent-1"

	t.Run("agent present", func(t *testing.T) {
		ticket := Ticket{ID: "ticket-1", AgentID: &agent}
		assert.Equal(t, AgentEntity("agent-1"), ticket.LedgerEntity())
	})

	t.Run("no agent", func(t *testing.T) {
		ticket := Ticket{ID: "ticket-1"}
		assert.Equal(t, TicketEntity("ticket-1"), ticket.LedgerEntity())
	})

	t.Run("empty agent id", func(t *testing.T) {
		empty := ""
		ticket := Ticket{ID: "ticket-1", AgentID: &empty}
		assert.False(t, ticket.HasAgent())
	})
}

func TestIsPlaceholderNumber(t *testing.T) {
	assert.True(t, IsPlaceholderNumber("0000000000000"))
	assert.True(t, IsPlaceholderNumber(" 0000000000000000 "))
	assert.False(t, IsPlaceholderNumber("1760000000001"))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	assert.Equal(t, 4, p.TotalPages)
	assert.Equal(t, 35, p.TotalItems)

	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}
