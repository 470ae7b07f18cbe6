package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/travelbooks/backend/internal/models"
)

// ChainViolation is an entry whose stored balance does not follow from the
// previous entry's balance and its own amount.
type ChainViolation struct {
	Index    int             `json:"index"`
	EntryID  string          `json:"entryId"`
	Expected decimal.Decimal `json:"expected"`
	Actual   decimal.Decimal `json:"actual"`
}

type ChainReport struct {
	EntityID   string           `json:"entityId"`
	Entries    int              `json:"entries"`
	Balance    decimal.Decimal  `json:"balance"`
	Valid      bool             `json:"valid"`
	Violations []ChainViolation `json:"violations"`
}

// VerifyChain replays an entity's entries in creation order and reports every
// break in the running balance sequence.
func (s *LedgerService) VerifyChain(ctx context.Context, entityID string) (*ChainReport, error) {
	if entityID == "" {
		return nil, invalid("entityId", "is required")
	}

	entries, err := s.store.EntriesForEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	report := CheckChain(entries)
	report.EntityID = entityID
	if !report.Valid {
		s.audit.LogOperation(entityID, "CHAIN_BROKEN", "running balance sequence has violations")
	}
	return report, nil
}

// CheckChain validates entries already sorted by creation time. Each entry is
// checked against the previous stored balance so one bad row yields one violation.
func CheckChain(entries []models.LedgerEntry) *ChainReport {
	report := &ChainReport{
		Entries:    len(entries),
		Balance:    decimal.Zero,
		Violations: []ChainViolation{},
	}

	prev := decimal.Zero
	for i, e := range entries {
		expected := e.TransactionType.Apply(prev, e.Amount)
		if !expected.Equal(e.Balance) {
			report.Violations = append(report.Violations, ChainViolation{
				Index:    i,
				EntryID:  e.ID,
				Expected: expected,
				Actual:   e.Balance,
			})
		}
		prev = e.Balance
	}

	report.Balance = prev
	report.Valid = len(report.Violations) == 0
	return report
}
