package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// the mini app reads balances and prices as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// User is a wallet owner identified by the chat platform account that launched the mini app.
// Balance is only ever changed together with a ledger Transaction.
type User struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TelegramID int64           `gorm:"uniqueIndex;not null" json:"telegramId"`
	Username   *string         `gorm:"type:varchar(64)" json:"username"`
	FirstName  string          `gorm:"type:varchar(128);not null" json:"firstName"`
	LastName   *string         `gorm:"type:varchar(128)" json:"lastName"`
	PhotoURL   *string         `gorm:"type:varchar(512)" json:"photoUrl"`
	Balance    decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"balance"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}
