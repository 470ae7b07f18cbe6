package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/travelbooks/backend/internal/config"
	"github.com/travelbooks/backend/internal/models"
)

type PostingKind string

const (
	PostingDebit     PostingKind = "debit"
	PostingRecord    PostingKind = "record"
	PostingReconcile PostingKind = "reconcile"
)

// PostingIntent is a ledger posting that could not be written when its parent
// ticket operation ran. It is replayed by the outbox worker.
type PostingIntent struct {
	Kind       PostingKind        `json:"kind"`
	Record     *RecordRequest     `json:"record,omitempty"`
	Difference *DifferenceRequest `json:"difference,omitempty"`
	Attempts   int                `json:"attempts"`
	LastError  string             `json:"lastError,omitempty"`
}

func (i PostingIntent) reference() string {
	switch {
	case i.Record != nil:
		return i.Record.ReferenceNumber
	case i.Difference != nil:
		return i.Difference.ReferenceNumber
	}
	return ""
}

func (i PostingIntent) apply(ctx context.Context, ledger *LedgerService) (*models.LedgerEntry, error) {
	switch i.Kind {
	case PostingDebit:
		if i.Record == nil || i.Record.TicketID == nil {
			return nil, invalid("record", "debit posting needs a ticket")
		}
		r := i.Record
		return ledger.RecordDebit(ctx, r.Entity, *r.TicketID, r.Amount, r.ReferenceNumber)
	case PostingRecord:
		if i.Record == nil {
			return nil, invalid("record", "is required")
		}
		return ledger.Record(ctx, *i.Record)
	case PostingReconcile:
		if i.Difference == nil {
			return nil, invalid("difference", "is required")
		}
		return ledger.ReconcileDifference(ctx, *i.Difference)
	}
	return nil, invalid("kind", "unknown posting kind %q", i.Kind)
}

// PostingQueue durably holds postings for retry.
type PostingQueue interface {
	Enqueue(ctx context.Context, intent PostingIntent) error
}

// RedisOutbox is a PostingQueue on a Redis list with a dead-letter list for
// postings that keep failing. A posting being applied sits in a processing
// list until its outcome is stored, so a crash mid-apply leaves it there for
// Recover.
type RedisOutbox struct {
	redis         *redis.Client
	ledger        *LedgerService
	key           string
	processingKey string
	deadKey       string
	maxAttempts   int
	pollTimeout   time.Duration
}

func NewRedisOutbox(rdb *redis.Client, ledger *LedgerService, cfg *config.LedgerConfig) *RedisOutbox {
	if cfg == nil {
		cfg = config.LoadLedgerConfig()
	}
	return &RedisOutbox{
		redis:         rdb,
		ledger:        ledger,
		key:           cfg.OutboxKey,
		processingKey: cfg.OutboxKey + ":processing",
		deadKey:       cfg.OutboxDeadKey,
		maxAttempts:   cfg.OutboxMaxAttempts,
		pollTimeout:   cfg.OutboxPollTimeout,
	}
}

// Enqueue adds a posting at the head of the queue; the worker takes from the tail.
func (o *RedisOutbox) Enqueue(ctx context.Context, intent PostingIntent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	return o.redis.LPush(ctx, o.key, data).Err()
}

// ProcessNext waits up to the poll timeout for one posting and applies it.
// It reports whether a posting was taken off the queue.
func (o *RedisOutbox) ProcessNext(ctx context.Context) (bool, error) {
	raw, err := o.redis.BRPopLPush(ctx, o.key, o.processingKey, o.pollTimeout).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var intent PostingIntent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		log.Printf("[OUTBOX] Dropping undecodable posting: %v", err)
		return true, o.done(ctx, raw)
	}

	if _, err := intent.apply(ctx, o.ledger); err != nil {
		if err := o.retry(ctx, intent, err); err != nil {
			return true, err
		}
		return true, o.done(ctx, raw)
	}

	log.Printf("[OUTBOX] Replayed %s posting for reference %s after %d attempt(s)", intent.Kind, intent.reference(), intent.Attempts+1)
	return true, o.done(ctx, raw)
}

// done removes a settled posting from the processing list.
func (o *RedisOutbox) done(ctx context.Context, raw string) error {
	return o.redis.LRem(ctx, o.processingKey, 1, raw).Err()
}

func (o *RedisOutbox) retry(ctx context.Context, intent PostingIntent, cause error) error {
	intent.Attempts++
	intent.LastError = cause.Error()

	data, err := json.Marshal(intent)
	if err != nil {
		return err
	}

	if errors.Is(cause, ErrValidation) || intent.Attempts >= o.maxAttempts {
		log.Printf("[OUTBOX] Posting for reference %s moved to dead letter after %d attempt(s): %v", intent.reference(), intent.Attempts, cause)
		return o.redis.RPush(ctx, o.deadKey, data).Err()
	}

	log.Printf("[OUTBOX] Posting for reference %s failed (attempt %d): %v", intent.reference(), intent.Attempts, cause)
	return o.redis.LPush(ctx, o.key, data).Err()
}

// Recover moves postings left in the processing list by a stopped worker
// back onto the queue. It returns how many were moved.
func (o *RedisOutbox) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := o.redis.RPopLPush(ctx, o.processingKey, o.key).Err()
		if err == redis.Nil {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("recover outbox: %w", err)
		}
		moved++
	}
}

// Run recovers interrupted postings, then drains the outbox until ctx is cancelled.
func (o *RedisOutbox) Run(ctx context.Context) error {
	if moved, err := o.Recover(ctx); err != nil {
		log.Printf("[OUTBOX] %v", err)
	} else if moved > 0 {
		log.Printf("[OUTBOX] Requeued %d interrupted posting(s)", moved)
	}

	log.Println("[OUTBOX] Ledger outbox worker is running")
	for {
		select {
		case <-ctx.Done():
			log.Println("[OUTBOX] Ledger outbox worker stopped")
			return nil
		default:
		}

		if _, err := o.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[OUTBOX] Worker error: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// DeadLetters lists postings that exhausted their retries, for repair tooling.
func (o *RedisOutbox) DeadLetters(ctx context.Context) ([]PostingIntent, error) {
	raw, err := o.redis.LRange(ctx, o.deadKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read dead letters: %w", err)
	}

	intents := make([]PostingIntent, 0, len(raw))
	for _, item := range raw {
		var intent PostingIntent
		if err := json.Unmarshal([]byte(item), &intent); err != nil {
			continue
		}
		intents = append(intents, intent)
	}
	return intents, nil
}
