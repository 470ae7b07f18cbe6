package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/travelbooks/backend/internal/models"
)

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func newTicket(agent *string, operation, paymentType string, cost int64, fee *decimal.Decimal) *models.Ticket {
	return &models.Ticket{
		ID:            "T1",
		TicketNumber:  "1234567890",
		PassengerName: "Jane Roe",
		AgentID:       agent,
		OperationType: operation,
		ConsumerCost:  dec(cost),
		PaymentType:   paymentType,
		ConsumerFee:   fee,
	}
}

func TestTicketPoster_PostCreation(t *testing.T) {
	ctx := context.Background()

	t.Run("agent ticket is charged to the agent", func(t *testing.T) {
		store := NewMemoryLedgerStore()
		poster := NewTicketPoster(newTestLedger(store, nil), nil)

		report := poster.PostCreation(ctx, newTicket(strPtr("A1"), models.OperationFlight, models.PaymentFull, 500, nil), false)

		require.Len(t, report.Posted, 1)
		entry := report.Posted[0]
		assert.Equal(t, "A1", entry.EntityID)
		assert.Equal(t, models.EntityAgent, entry.EntityType)
		assert.Equal(t, "Ticket charge - 1234567890", entry.Description)
		assert.Equal(t, "T1", *entry.TicketID)
		assert.True(t, dec(500).Equal(entry.Balance))
	})

	t.Run("partial payment without agent charges the ticket", func(t *testing.T) {
		poster := NewTicketPoster(newTestLedger(NewMemoryLedgerStore(), nil), nil)

		report := poster.PostCreation(ctx, newTicket(nil, models.OperationHotel, models.PaymentPartial, 800, nil), false)

		require.Len(t, report.Posted, 1)
		assert.Equal(t, "T1", report.Posted[0].EntityID)
		assert.Equal(t, models.EntityTicket, report.Posted[0].EntityType)
	})

	t.Run("fully paid ticket without agent posts nothing", func(t *testing.T) {
		store := NewMemoryLedgerStore()
		poster := NewTicketPoster(newTestLedger(store, nil), nil)

		report := poster.PostCreation(ctx, newTicket(nil, models.OperationFlight, models.PaymentFull, 800, nil), false)

		assert.Empty(t, report.Posted)
		entries, _ := store.EntriesForEntity(ctx, "T1")
		assert.Empty(t, entries)
	})

	t.Run("agent card posts a no-effect entry", func(t *testing.T) {
		poster := NewTicketPoster(newTestLedger(NewMemoryLedgerStore(), nil), nil)

		report := poster.PostCreation(ctx, newTicket(strPtr("A1"), models.OperationFlight, models.PaymentFull, 500, nil), true)

		require.Len(t, report.Posted, 1)
		assert.Equal(t, models.NoEffect, report.Posted[0].TransactionType)
		assert.True(t, report.Posted[0].Balance.IsZero())
		assert.Equal(t, "Flight - Price - 1234567890 (agent card)", report.Posted[0].Description)
	})

	t.Run("refund fee is an independent debit", func(t *testing.T) {
		poster := NewTicketPoster(newTestLedger(NewMemoryLedgerStore(), nil), nil)

		report := poster.PostCreation(ctx, newTicket(strPtr("A1"), models.OperationRefund, models.PaymentFull, 500, decPtr(25)), true)

		require.Len(t, report.Posted, 2)
		fee := report.Posted[1]
		assert.Equal(t, models.Debit, fee.TransactionType)
		assert.Equal(t, "Refund - Fee - 1234567890", fee.Description)
		assert.True(t, dec(25).Equal(fee.Balance))
	})

	t.Run("re-issue fee is posted even without a price charge", func(t *testing.T) {
		poster := NewTicketPoster(newTestLedger(NewMemoryLedgerStore(), nil), nil)

		report := poster.PostCreation(ctx, newTicket(nil, models.OperationReIssue, models.PaymentFull, 500, decPtr(40)), false)

		require.Len(t, report.Posted, 1)
		assert.Equal(t, "Re-Issue - Fee - 1234567890", report.Posted[0].Description)
		assert.Equal(t, models.EntityTicket, report.Posted[0].EntityType)
	})

	t.Run("failed posting is queued", func(t *testing.T) {
		store := &failingStore{MemoryLedgerStore: NewMemoryLedgerStore(), failWrites: true, err: errors.New("db down")}
		queue := new(MockPostingQueue)
		queue.On("Enqueue", ctx, mock.MatchedBy(func(i PostingIntent) bool {
			return i.Kind == PostingDebit && i.Attempts == 1 && i.LastError == "ledger store append: db down"
		})).Return(nil).Once()
		poster := NewTicketPoster(newTestLedger(store, nil), queue)

		report := poster.PostCreation(ctx, newTicket(strPtr("A1"), models.OperationFlight, models.PaymentFull, 500, nil), false)

		assert.Empty(t, report.Posted)
		assert.Equal(t, 1, report.Deferred)
		assert.Equal(t, 0, report.Failed)
		queue.AssertExpectations(t)
	})

	t.Run("queue failure is reported", func(t *testing.T) {
		store := &failingStore{MemoryLedgerStore: NewMemoryLedgerStore(), failWrites: true, err: errors.New("db down")}
		queue := new(MockPostingQueue)
		queue.On("Enqueue", ctx, mock.Anything).Return(errors.New("redis down"))
		poster := NewTicketPoster(newTestLedger(store, nil), queue)

		report := poster.PostCreation(ctx, newTicket(strPtr("A1"), models.OperationFlight, models.PaymentFull, 500, nil), false)

		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 0, report.Deferred)
	})
}

func TestTicketPoster_PostUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("cost and fee reconcile independently", func(t *testing.T) {
		ledger := newTestLedger(NewMemoryLedgerStore(), nil)
		poster := NewTicketPoster(ledger, nil)
		before := newTicket(strPtr("A1"), models.OperationReIssue, models.PaymentFull, 500, decPtr(20))
		poster.PostCreation(ctx, before, false)

		after := *before
		after.ConsumerCost = dec(300)
		after.ConsumerFee = decPtr(50)

		report := poster.PostUpdate(ctx, before, &after, true)

		require.Len(t, report.Posted, 2)
		assert.Equal(t, models.NoEffect, report.Posted[0].TransactionType)
		assert.Equal(t, "Price updated by -200 (old->new) on ticket update", report.Posted[0].Description)
		assert.Equal(t, models.Debit, report.Posted[1].TransactionType)
		assert.Equal(t, "Fee updated by 30 (old->new) on ticket update", report.Posted[1].Description)

		balance, err := ledger.CurrentBalance(ctx, "A1")
		require.NoError(t, err)
		assert.True(t, dec(550).Equal(balance))
	})

	t.Run("removed fee is credited back", func(t *testing.T) {
		poster := NewTicketPoster(newTestLedger(NewMemoryLedgerStore(), nil), nil)
		before := newTicket(strPtr("A1"), models.OperationRefund, models.PaymentFull, 500, decPtr(20))

		after := *before
		after.ConsumerFee = nil

		report := poster.PostUpdate(ctx, before, &after, false)

		require.Len(t, report.Posted, 1)
		assert.Equal(t, models.Credit, report.Posted[0].TransactionType)
		assert.True(t, dec(20).Equal(report.Posted[0].Amount))
	})

	t.Run("unchanged amounts post nothing", func(t *testing.T) {
		poster := NewTicketPoster(newTestLedger(NewMemoryLedgerStore(), nil), nil)
		before := newTicket(strPtr("A1"), models.OperationFlight, models.PaymentFull, 500, nil)
		after := *before
		after.PassengerName = "John Roe"

		report := poster.PostUpdate(ctx, before, &after, false)

		assert.Empty(t, report.Posted)
		assert.Zero(t, report.Deferred)
	})
}
