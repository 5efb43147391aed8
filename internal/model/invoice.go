package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusCreated   = "CREATED"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusExpired   = "EXPIRED"
	InvoiceStatusCancelled = "CANCELLED"
)

var ValidInvoiceTransitions = map[string][]string{
	InvoiceStatusCreated: {InvoiceStatusPaid, InvoiceStatusExpired, InvoiceStatusCancelled},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowed, exists := ValidInvoiceTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// TopUpInvoice tracks a payment processor invoice so that a lost webhook can be reconciled.
type TopUpInvoice struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"orderId"`
	UserID    int64           `gorm:"index;not null" json:"userId"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	InvoiceID string          `gorm:"type:varchar(64)" json:"invoiceId"`
	PayURL    string          `gorm:"type:varchar(512)" json:"payUrl"`
	Status    string          `gorm:"type:varchar(20);index;not null" json:"status"`
	ExpiresAt time.Time       `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (TopUpInvoice) TableName() string {
	return "topup_invoice"
}
