package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionSync   = "sync"
	ActionDelete = "delete"
)

// TransactionExportMessage asks the worker to export one transaction.
// It carries only the ID and the action; the worker fetches the full row
// from the database so the message never goes stale.
type TransactionExportMessage struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionExportMessage(id, action string) *TransactionExportMessage {
	return &TransactionExportMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *TransactionExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionExportMessageFromJSON(data []byte) (*TransactionExportMessage, error) {
	var msg TransactionExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

const (
	DebtorEventSettled   = "settled"
	DebtorEventCancelled = "cancelled"
)

// DebtorEventMessage announces a debtor status transition. Published as a
// best-effort notification on its own routing key; consumers interested in
// the audit stream bind their own queue to it.
type DebtorEventMessage struct {
	DebtorID  string    `json:"debtor_id"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDebtorEventMessage(debtorID, event string) *DebtorEventMessage {
	return &DebtorEventMessage{
		DebtorID:  debtorID,
		Event:     event,
		Timestamp: time.Now(),
	}
}

func (m *DebtorEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DebtorEventMessageFromJSON(data []byte) (*DebtorEventMessage, error) {
	var msg DebtorEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
