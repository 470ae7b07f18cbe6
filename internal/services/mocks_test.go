package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/travelbooks/backend/internal/config"
	"github.com/travelbooks/backend/internal/models"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(subject string, data []byte) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

type MockPostingQueue struct {
	mock.Mock
}

func (m *MockPostingQueue) Enqueue(ctx context.Context, intent PostingIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

type MockPaymentMethods struct {
	mock.Mock
}

func (m *MockPaymentMethods) MethodType(ctx context.Context, methodID string) (string, error) {
	args := m.Called(ctx, methodID)
	return args.String(0), args.Error(1)
}

// failingStore fails every write while failWrites is set and otherwise
// delegates to the in-memory store.
type failingStore struct {
	*MemoryLedgerStore
	failWrites bool
	err        error
}

func (s *failingStore) Append(ctx context.Context, draft models.EntryDraft) (*models.LedgerEntry, error) {
	if s.failWrites {
		return nil, s.err
	}
	return s.MemoryLedgerStore.Append(ctx, draft)
}

func (s *failingStore) AppendPayment(ctx context.Context, payment *models.Payment, draft models.EntryDraft) (*models.LedgerEntry, error) {
	if s.failWrites {
		return nil, s.err
	}
	return s.MemoryLedgerStore.AppendPayment(ctx, payment, draft)
}

func testLedgerConfig() *config.LedgerConfig {
	return &config.LedgerConfig{
		OutboxKey:         "ledger_outbox",
		OutboxDeadKey:     "ledger_outbox:dead",
		OutboxMaxAttempts: 3,
		OutboxPollTimeout: time.Second,
		DefaultPageSize:   10,
		MaxPageSize:       100,
		AgentCardType:     models.DefaultAgentCardType,
		EventsSubject:     "ledger.entry.recorded",
	}
}
