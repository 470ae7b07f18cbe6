package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/travelbooks/backend/internal/models"
)

// TicketPoster turns ticket lifecycle events into ledger postings. It never
// fails the ticket operation: postings that cannot be written are queued on
// the outbox for replay.
type TicketPoster struct {
	ledger *LedgerService
	queue  PostingQueue
}

// PostingReport tells the caller what happened to each posting.
type PostingReport struct {
	Posted   []*models.LedgerEntry `json:"posted"`
	Deferred int                   `json:"deferred"`
	Failed   int                   `json:"failed"`
}

func NewTicketPoster(ledger *LedgerService, queue PostingQueue) *TicketPoster {
	return &TicketPoster{ledger: ledger, queue: queue}
}

// PostCreation charges a newly created ticket. The consumer cost is posted
// when an agent is attached or the ticket is partially paid; Refund and
// Re-Issue fees are always posted as debits.
func (p *TicketPoster) PostCreation(ctx context.Context, t *models.Ticket, isAgentCard bool) PostingReport {
	var report PostingReport
	entity := t.LedgerEntity()
	ticketID := t.ID

	if t.HasAgent() || t.PaymentType == models.PaymentPartial {
		charge := &RecordRequest{
			Entity:          entity,
			TicketID:        &ticketID,
			Amount:          t.ConsumerCost,
			ReferenceNumber: t.TicketNumber,
			TransactionType: models.Debit,
		}
		kind := PostingDebit
		if isAgentCard {
			kind = PostingRecord
			charge.TransactionType = models.NoEffect
			charge.Description = fmt.Sprintf("%s - Price - %s (agent card)", t.OperationType, t.TicketNumber)
		}
		p.post(ctx, PostingIntent{Kind: kind, Record: charge}, &report)
	}

	if t.IsFeeOperation() && t.ConsumerFee != nil {
		p.post(ctx, PostingIntent{Kind: PostingRecord, Record: &RecordRequest{
			Entity:          entity,
			TicketID:        &ticketID,
			Amount:          *t.ConsumerFee,
			ReferenceNumber: t.TicketNumber,
			Description:     fmt.Sprintf("%s - Fee - %s", t.OperationType, t.TicketNumber),
			TransactionType: models.Debit,
		}}, &report)
	}

	return report
}

// PostUpdate reconciles consumer cost and consumer fee edits independently.
// Only the cost honours the agent card flag.
func (p *TicketPoster) PostUpdate(ctx context.Context, before, after *models.Ticket, isAgentCard bool) PostingReport {
	var report PostingReport
	entity := after.LedgerEntity()

	if !before.ConsumerCost.Equal(after.ConsumerCost) {
		p.post(ctx, PostingIntent{Kind: PostingReconcile, Difference: &DifferenceRequest{
			OldValue:          before.ConsumerCost,
			NewValue:          after.ConsumerCost,
			Entity:            entity,
			TicketID:          after.ID,
			ReferenceNumber:   after.TicketNumber,
			DescriptionPrefix: "Price",
			IsAgentCard:       isAgentCard,
		}}, &report)
	}

	oldFee, newFee := before.ConsumerFeeOrZero(), after.ConsumerFeeOrZero()
	if !oldFee.Equal(newFee) {
		p.post(ctx, PostingIntent{Kind: PostingReconcile, Difference: &DifferenceRequest{
			OldValue:          oldFee,
			NewValue:          newFee,
			Entity:            entity,
			TicketID:          after.ID,
			ReferenceNumber:   after.TicketNumber,
			DescriptionPrefix: "Fee",
		}}, &report)
	}

	return report
}

func (p *TicketPoster) post(ctx context.Context, intent PostingIntent, report *PostingReport) {
	entry, err := intent.apply(ctx, p.ledger)
	if err == nil {
		if entry != nil {
			report.Posted = append(report.Posted, entry)
		}
		return
	}

	log.Printf("[TICKET] Ledger %s posting failed for reference %s: %v", intent.Kind, intent.reference(), err)

	if errors.Is(err, ErrValidation) || p.queue == nil {
		report.Failed++
		return
	}

	intent.Attempts = 1
	intent.LastError = err.Error()
	if qerr := p.queue.Enqueue(ctx, intent); qerr != nil {
		log.Printf("[TICKET] Could not queue posting for reference %s: %v", intent.reference(), qerr)
		report.Failed++
		return
	}
	report.Deferred++
}
