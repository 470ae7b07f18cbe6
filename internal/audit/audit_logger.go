package audit

import (
	"encoding/json"
	"log"
	"time"
)

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	EntryID   string    `json:"entry_id,omitempty"`
	EntityID  string    `json:"entity_id"`
	Reference string    `json:"reference,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details"`
}

type AuditLogger struct {
	sink func(string)
}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{sink: func(line string) { log.Print(line) }}
}

// NewAuditLoggerWithSink routes audit lines to sink instead of the standard logger.
func NewAuditLoggerWithSink(sink func(string)) *AuditLogger {
	return &AuditLogger{sink: sink}
}

func (a *AuditLogger) LogPosting(entryID, entityID, reference, txType, amount, balance string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "POSTING",
		EntryID:   entryID,
		EntityID:  entityID,
		Reference: reference,
		Amount:    amount,
		Status:    "SUCCESS",
		Details: map[string]string{
			"transaction_type": txType,
			"balance":          balance,
		},
	})
}

func (a *AuditLogger) LogPayment(paymentID, entityID, reference, amount, actor string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "PAYMENT",
		EntryID:   paymentID,
		EntityID:  entityID,
		Reference: reference,
		Amount:    amount,
		Status:    "SUCCESS",
		Details:   map[string]string{"actor": actor},
	})
}

func (a *AuditLogger) LogError(entityID, reference string, err error) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "ERROR",
		EntityID:  entityID,
		Reference: reference,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) LogOperation(entityID, operation, details string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: operation,
		EntityID:  entityID,
		Status:    "SUCCESS",
		Details:   map[string]string{"details": details},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	data, _ := json.Marshal(event)
	a.sink("AUDIT: " + string(data))
}
