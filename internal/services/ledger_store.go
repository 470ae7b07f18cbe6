package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelbooks/backend/internal/models"
)

// LedgerStore is the append-only home of ledger entries. Append and
// AppendPayment compute the new balance and write the entry atomically per
// entity, so concurrent writers never build on the same previous balance.
type LedgerStore interface {
	LatestBalance(ctx context.Context, entityID string) (decimal.Decimal, error)
	Append(ctx context.Context, draft models.EntryDraft) (*models.LedgerEntry, error)
	AppendPayment(ctx context.Context, payment *models.Payment, draft models.EntryDraft) (*models.LedgerEntry, error)
	EntriesForEntity(ctx context.Context, entityID string) ([]models.LedgerEntry, error)
	ListByEntity(ctx context.Context, q EntityQuery) ([]models.LedgerEntry, int, error)
	List(ctx context.Context, q ListQuery) ([]models.LedgerEntry, int, error)
	Summaries(ctx context.Context) ([]models.BalanceSummary, error)
}

// EntityQuery pages through one entity's entries, newest first. Dates filter
// on creation time and are inclusive.
type EntityQuery struct {
	EntityID  string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// ListQuery pages through all entries, newest first, optionally filtered by a
// case-insensitive search term.
type ListQuery struct {
	Search string
	Page   int
	Limit  int
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// MemoryLedgerStore keeps the ledger in process. Used for local runs and tests.
type MemoryLedgerStore struct {
	mu       sync.RWMutex
	entries  []models.LedgerEntry
	payments []models.Payment
	balances map[string]decimal.Decimal
	names    map[string]string
	resolve  NameResolver
	now      func() time.Time
}

// NameResolver looks up the display name of an entity.
type NameResolver func(entity models.EntityRef) string

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		balances: make(map[string]decimal.Decimal),
		names:    make(map[string]string),
		now:      time.Now,
	}
}

// SetDisplayName registers the name shown for an entity in summaries.
func (s *MemoryLedgerStore) SetDisplayName(entity models.EntityRef, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[entity.String()] = name
}

// ResolveNamesWith sets the lookup used for entities without a registered name.
func (s *MemoryLedgerStore) ResolveNamesWith(resolve NameResolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolve = resolve
}

// Payments returns a copy of the recorded payments.
func (s *MemoryLedgerStore) Payments() []models.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Payment(nil), s.payments...)
}

func (s *MemoryLedgerStore) LatestBalance(ctx context.Context, entityID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].EntityID == entityID {
			return s.entries[i].Balance, nil
		}
	}
	return decimal.Zero, nil
}

func (s *MemoryLedgerStore) Append(ctx context.Context, draft models.EntryDraft) (*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(draft), nil
}

func (s *MemoryLedgerStore) AppendPayment(ctx context.Context, payment *models.Payment, draft models.EntryDraft) (*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	payment.CreatedAt = s.now()
	s.payments = append(s.payments, *payment)
	return s.appendLocked(draft), nil
}

func (s *MemoryLedgerStore) appendLocked(draft models.EntryDraft) *models.LedgerEntry {
	now := s.now()
	current := s.balances[draft.Entity.ID]

	entry := models.LedgerEntry{
		ID:              uuid.NewString(),
		EntityID:        draft.Entity.ID,
		EntityType:      draft.Entity.Kind,
		TicketID:        draft.TicketID,
		TransactionType: draft.TransactionType,
		Amount:          draft.Amount,
		Balance:         draft.TransactionType.Apply(current, draft.Amount),
		Description:     draft.Description,
		ReferenceNumber: draft.ReferenceNumber,
		Date:            now,
		CreatedAt:       now,
	}
	if draft.Date != nil {
		entry.Date = *draft.Date
	}

	s.entries = append(s.entries, entry)
	s.balances[draft.Entity.ID] = entry.Balance
	if _, ok := s.names[draft.Entity.String()]; !ok {
		s.names[draft.Entity.String()] = ""
	}
	return &entry
}

func (s *MemoryLedgerStore) EntriesForEntity(ctx context.Context, entityID string) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.LedgerEntry
	for _, e := range s.entries {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryLedgerStore) ListByEntity(ctx context.Context, q EntityQuery) ([]models.LedgerEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.page(func(e models.LedgerEntry) bool {
		if e.EntityID != q.EntityID {
			return false
		}
		if q.StartDate != nil && e.CreatedAt.Before(*q.StartDate) {
			return false
		}
		if q.EndDate != nil && e.CreatedAt.After(*q.EndDate) {
			return false
		}
		return true
	}, q.Page, q.Limit)
}

func (s *MemoryLedgerStore) List(ctx context.Context, q ListQuery) ([]models.LedgerEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(q.Search))
	return s.page(func(e models.LedgerEntry) bool {
		if term == "" {
			return true
		}
		for _, field := range []string{e.EntityID, string(e.EntityType), string(e.TransactionType), e.Description, e.ReferenceNumber} {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	}, q.Page, q.Limit)
}

// page walks entries newest first; callers hold the read lock.
func (s *MemoryLedgerStore) page(match func(models.LedgerEntry) bool, page, limit int) ([]models.LedgerEntry, int, error) {
	var matched []models.LedgerEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if match(s.entries[i]) {
			matched = append(matched, s.entries[i])
		}
	}

	total := len(matched)
	start := offset(page, limit)
	if start >= total {
		return []models.LedgerEntry{}, total, nil
	}
	end := start + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *MemoryLedgerStore) Summaries(ctx context.Context) ([]models.BalanceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []models.BalanceSummary
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if seen[e.EntityID] {
			continue
		}
		seen[e.EntityID] = true

		name := s.names[e.Entity().String()]
		if name == "" && s.resolve != nil {
			name = s.resolve(e.Entity())
		}
		out = append(out, models.BalanceSummary{
			EntityID:   e.EntityID,
			EntityType: e.EntityType,
			Name:       name,
			Balance:    e.Balance,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EntityType != out[j].EntityType {
			return out[i].EntityType < out[j].EntityType
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
