package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelbooks/backend/internal/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*PostgresLedgerStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewPostgresLedgerStore(db)
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

func expectLock(mock sqlmock.Sqlmock, entityID, kind, balance string, version int) {
	mock.ExpectExec("INSERT INTO entity_balances").
		WithArgs(entityID, kind, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT balance, version FROM entity_balances WHERE entity_id = \\$1 FOR UPDATE").
		WithArgs(entityID).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "version"}).AddRow(balance, version))
}

func TestPostgresLedgerStore_LatestBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("latest row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT balance FROM ledger_entries WHERE entity_id = \\$1 ORDER BY created_at DESC, seq DESC LIMIT 1").
			WithArgs("A1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("300.00"))

		balance, err := store.LatestBalance(ctx, "A1")

		assert.NoError(t, err)
		assert.True(t, dec(300).Equal(balance))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows is zero", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT balance FROM ledger_entries").
			WithArgs("A2").
			WillReturnError(sql.ErrNoRows)

		balance, err := store.LatestBalance(ctx, "A2")

		assert.NoError(t, err)
		assert.True(t, balance.IsZero())
	})
}

func TestPostgresLedgerStore_Append(t *testing.T) {
	ctx := context.Background()
	ticketID := "T1"
	draft := models.EntryDraft{
		Entity:          models.AgentEntity("A1"),
		TicketID:        &ticketID,
		TransactionType: models.Debit,
		Amount:          dec(200),
		Description:     "Ticket charge - REF1",
		ReferenceNumber: "REF1",
	}

	t.Run("successful append", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		expectLock(mock, "A1", "Agent", "500.00", 3)
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(sqlmock.AnyArg(), "A1", "Agent", "T1", "debit", dec(200), dec(700),
				"Ticket charge - REF1", "REF1", fixedNow, fixedNow).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE entity_balances SET balance = \\$1, version = version \\+ 1, last_entry_id = \\$2, updated_at = \\$3 WHERE entity_id = \\$4 AND version = \\$5").
			WithArgs(dec(700), sqlmock.AnyArg(), fixedNow, "A1", 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		entry, err := store.Append(ctx, draft)

		require.NoError(t, err)
		assert.True(t, dec(700).Equal(entry.Balance))
		assert.Equal(t, fixedNow, entry.Date)
		assert.NotEmpty(t, entry.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("version conflict rolls back", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		expectLock(mock, "A1", "Agent", "500.00", 3)
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE entity_balances").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := store.Append(ctx, draft)

		assert.ErrorIs(t, err, ErrOptimisticLock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		expectLock(mock, "A1", "Agent", "0", 0)
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := store.Append(ctx, draft)

		assert.EqualError(t, err, "disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresLedgerStore_AppendPayment(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	paidAt := time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC)

	payment := &models.Payment{
		EntityID:        "A1",
		EntityType:      models.EntityAgent,
		Amount:          dec(300),
		PaymentMethod:   "Cash",
		PaymentDate:     paidAt,
		ReferenceNumber: "PAY-1",
		RelatedTickets:  models.TicketIDs{"T1", "T2"},
		User:            "user-1",
	}
	draft := models.EntryDraft{
		Entity:          models.AgentEntity("A1"),
		TransactionType: models.Credit,
		Amount:          dec(300),
		Description:     "Payment received - PAY-1",
		ReferenceNumber: "PAY-1",
		Date:            &paidAt,
	}

	mock.ExpectBegin()
	expectLock(mock, "A1", "Agent", "500", 1)
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(sqlmock.AnyArg(), "A1", "Agent", dec(300), "Cash", paidAt, "PAY-1", "",
			[]byte(`["T1","T2"]`), "user-1", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(sqlmock.AnyArg(), "A1", "Agent", nil, "credit", dec(300), dec(200),
			"Payment received - PAY-1", "PAY-1", paidAt, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE entity_balances").
		WithArgs(dec(200), sqlmock.AnyArg(), fixedNow, "A1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry, err := store.AppendPayment(ctx, payment, draft)

	require.NoError(t, err)
	assert.NotEmpty(t, payment.ID)
	assert.Equal(t, paidAt, entry.Date)
	assert.True(t, dec(200).Equal(entry.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerStore_ListByEntity(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	columns := []string{"id", "entity_id", "entity_type", "ticket_id", "transaction_type", "amount",
		"balance", "description", "reference_number", "date", "created_at"}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM ledger_entries WHERE entity_id = \\$1 AND created_at >= \\$2 AND created_at <= \\$3").
		WithArgs("A1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery("ORDER BY created_at DESC, seq DESC LIMIT \\$4 OFFSET \\$5").
		WithArgs("A1", start, end, 10, 10).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("e2", "A1", "Agent", "T1", "credit", "200.00", "300.00", "Payment received - P", "P", start, start).
			AddRow("e1", "A1", "Agent", nil, "debit", "500.00", "500.00", "Ticket charge - R", "R", start, start))

	entries, total, err := store.ListByEntity(ctx, EntityQuery{EntityID: "A1", StartDate: &start, EndDate: &end, Page: 2, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, entries, 2)
	assert.Equal(t, models.Credit, entries[0].TransactionType)
	assert.Equal(t, "T1", *entries[0].TicketID)
	assert.Nil(t, entries[1].TicketID)
	assert.True(t, dec(300).Equal(entries[0].Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerStore_ListSearch(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM ledger_entries WHERE \\(entity_id ILIKE \\$1").
		WithArgs("%umrah%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("LIMIT \\$2 OFFSET \\$3").
		WithArgs("%umrah%", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	entries, total, err := store.List(ctx, ListQuery{Search: " umrah ", Page: 1, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerStore_Summaries(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM entity_balances b LEFT JOIN agents a").
		WillReturnRows(sqlmock.NewRows([]string{"entity_id", "entity_type", "balance", "name"}).
			AddRow("A1", "Agent", "150.00", "Blue Sky Travel").
			AddRow("T9", "Ticket", "99.00", "Jane Roe"))

	summaries, err := store.Summaries(context.Background())

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, models.EntityAgent, summaries[0].EntityType)
	assert.Equal(t, "Jane Roe", summaries[1].Name)
	assert.True(t, dec(99).Equal(summaries[1].Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}
