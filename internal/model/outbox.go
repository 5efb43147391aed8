package model

import (
	"time"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

const (
	EventTopUpCredited = "wallet.topup.credited"
	EventPurchaseMade  = "wallet.purchase.made"
)

// OutboxMessage is written in the same atomic unit as the ledger change it describes
// and later relayed to the message broker.
type OutboxMessage struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageKey string    `gorm:"type:varchar(64);not null" json:"message_key"`
	Topic      string    `gorm:"type:varchar(64);not null" json:"topic"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	Status     string    `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`
	RetryCount int       `gorm:"not null;default:0" json:"retry_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_message"
}

// LedgerEvent is the payload published for every balance change.
type LedgerEvent struct {
	EventNo       string `json:"event_no"`
	Event         string `json:"event"`
	UserID        int64  `json:"user_id"`
	TransactionID int64  `json:"transaction_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	BalanceAfter  string `json:"balance_after"`
	ServiceID     *int64 `json:"service_id,omitempty"`
	Reference     string `json:"reference,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
