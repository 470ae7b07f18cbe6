package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelbooks/backend/internal/models"
)

const entryColumns = `id, entity_id, entity_type, ticket_id, transaction_type, amount, balance, description, reference_number, date, created_at`

// PostgresLedgerStore keeps ledger_entries append-only and maintains the
// entity_balances projection in the same transaction. The projection row is
// locked FOR UPDATE and bumped with a version check, which serializes writers
// per entity.
type PostgresLedgerStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db, now: time.Now}
}

type balanceRow struct {
	Balance decimal.Decimal
	Version int
}

func (s *PostgresLedgerStore) LatestBalance(ctx context.Context, entityID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT balance FROM ledger_entries
		WHERE entity_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`, entityID).Scan(&balance)

	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *PostgresLedgerStore) Append(ctx context.Context, draft models.EntryDraft) (*models.LedgerEntry, error) {
	return s.appendTx(ctx, draft, nil)
}

func (s *PostgresLedgerStore) AppendPayment(ctx context.Context, payment *models.Payment, draft models.EntryDraft) (*models.LedgerEntry, error) {
	return s.appendTx(ctx, draft, func(tx *sql.Tx) error {
		return s.insertPayment(ctx, tx, payment)
	})
}

func (s *PostgresLedgerStore) appendTx(ctx context.Context, draft models.EntryDraft, before func(*sql.Tx) error) (*models.LedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := s.lockBalance(ctx, tx, draft.Entity)
	if err != nil {
		return nil, err
	}

	if before != nil {
		if err := before(tx); err != nil {
			return nil, err
		}
	}

	now := s.now()
	entry := &models.LedgerEntry{
		ID:              uuid.NewString(),
		EntityID:        draft.Entity.ID,
		EntityType:      draft.Entity.Kind,
		TicketID:        draft.TicketID,
		TransactionType: draft.TransactionType,
		Amount:          draft.Amount,
		Balance:         draft.TransactionType.Apply(current.Balance, draft.Amount),
		Description:     draft.Description,
		ReferenceNumber: draft.ReferenceNumber,
		Date:            now,
		CreatedAt:       now,
	}
	if draft.Date != nil {
		entry.Date = *draft.Date
	}

	if err := s.createLedgerEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := s.updateBalance(ctx, tx, entry, current.Version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// lockBalance makes sure the projection row exists and locks it.
func (s *PostgresLedgerStore) lockBalance(ctx context.Context, tx *sql.Tx, entity models.EntityRef) (*balanceRow, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO entity_balances (entity_id, entity_type, balance, version, updated_at)
		VALUES ($1, $2, 0, 0, $3)
		ON CONFLICT (entity_id) DO NOTHING`,
		entity.ID, string(entity.Kind), s.now())
	if err != nil {
		return nil, err
	}

	var row balanceRow
	err = tx.QueryRowContext(ctx, `
		SELECT balance, version
		FROM entity_balances
		WHERE entity_id = $1
		FOR UPDATE`, entity.ID).Scan(&row.Balance, &row.Version)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *PostgresLedgerStore) createLedgerEntry(ctx context.Context, tx *sql.Tx, e *models.LedgerEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.EntityID, string(e.EntityType), e.TicketID, string(e.TransactionType),
		e.Amount, e.Balance, e.Description, e.ReferenceNumber, e.Date, e.CreatedAt)
	return err
}

func (s *PostgresLedgerStore) updateBalance(ctx context.Context, tx *sql.Tx, e *models.LedgerEntry, version int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE entity_balances
		SET balance = $1, version = version + 1, last_entry_id = $2, updated_at = $3
		WHERE entity_id = $4 AND version = $5`,
		e.Balance, e.ID, e.CreatedAt, e.EntityID, version)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w for entity %s", ErrOptimisticLock, e.EntityID)
	}
	return nil
}

func (s *PostgresLedgerStore) insertPayment(ctx context.Context, tx *sql.Tx, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = s.now()

	_, err := tx.ExecContext(ctx, `
		INSERT INTO payments (id, entity_id, entity_type, amount, payment_method, payment_date, reference_number, description, related_tickets, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.EntityID, string(p.EntityType), p.Amount, p.PaymentMethod, p.PaymentDate,
		p.ReferenceNumber, p.Description, p.RelatedTickets, p.User, p.CreatedAt)
	return err
}

func (s *PostgresLedgerStore) EntriesForEntity(ctx context.Context, entityID string) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE entity_id = $1
		ORDER BY created_at ASC, seq ASC`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresLedgerStore) ListByEntity(ctx context.Context, q EntityQuery) ([]models.LedgerEntry, int, error) {
	conditions := []string{"entity_id = $1"}
	args := []interface{}{q.EntityID}
	argIndex := 2

	if q.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *q.StartDate)
		argIndex++
	}

	if q.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *q.EndDate)
		argIndex++
	}

	return s.pageQuery(ctx, " WHERE "+strings.Join(conditions, " AND "), args, argIndex, q.Page, q.Limit)
}

func (s *PostgresLedgerStore) List(ctx context.Context, q ListQuery) ([]models.LedgerEntry, int, error) {
	where := ""
	var args []interface{}
	argIndex := 1

	if term := strings.TrimSpace(q.Search); term != "" {
		where = ` WHERE (entity_id ILIKE $1 OR entity_type ILIKE $1 OR transaction_type ILIKE $1
			OR description ILIKE $1 OR reference_number ILIKE $1)`
		args = append(args, "%"+term+"%")
		argIndex++
	}

	return s.pageQuery(ctx, where, args, argIndex, q.Page, q.Limit)
}

func (s *PostgresLedgerStore) pageQuery(ctx context.Context, where string, args []interface{}, argIndex, page, limit int) ([]models.LedgerEntry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledger_entries"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + entryColumns + " FROM ledger_entries" + where +
		" ORDER BY created_at DESC, seq DESC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset(page, limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *PostgresLedgerStore) Summaries(ctx context.Context) ([]models.BalanceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.entity_id, b.entity_type, b.balance,
		       COALESCE(a.name, t.passenger_name, '') AS name
		FROM entity_balances b
		LEFT JOIN agents a ON b.entity_type = 'Agent' AND a.id = b.entity_id
		LEFT JOIN tickets t ON b.entity_type = 'Ticket' AND t.id = b.entity_id
		WHERE b.last_entry_id IS NOT NULL
		ORDER BY b.entity_type, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []models.BalanceSummary{}
	for rows.Next() {
		var s models.BalanceSummary
		var kind string
		if err := rows.Scan(&s.EntityID, &kind, &s.Balance, &s.Name); err != nil {
			return nil, err
		}
		s.EntityType = models.EntityKind(kind)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func scanEntries(rows *sql.Rows) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		var kind, txType string
		var ticketID sql.NullString
		err := rows.Scan(
			&e.ID, &e.EntityID, &kind, &ticketID, &txType,
			&e.Amount, &e.Balance, &e.Description, &e.ReferenceNumber, &e.Date, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		e.EntityType = models.EntityKind(kind)
		e.TransactionType = models.TransactionType(txType)
		if ticketID.Valid {
			id := ticketID.String
			e.TicketID = &id
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
