package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeTopUp    = "topup"
	TransactionTypePurchase = "purchase"
)

// Transaction is an append-only ledger entry. Amount is always positive; Type carries the sign.
//
// For every user: balance == sum(topup amounts) - sum(purchase amounts).
type Transaction struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64           `gorm:"index;not null" json:"userId"`
	Type        string          `gorm:"type:varchar(20);not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Description string          `gorm:"type:varchar(256);not null" json:"description"`
	ServiceID   *int64          `json:"serviceId"`
	Reference   *string         `gorm:"type:varchar(64);uniqueIndex" json:"reference"` // provider order id, topups only
	CreatedAt   time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Signed returns the amount as it applies to the balance.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionTypePurchase {
		return t.Amount.Neg()
	}
	return t.Amount
}
