package model

import (
	"time"

	"gorm.io/datatypes"
)

// IPCheck is a stored IP lookup. Details holds the provider payload verbatim.
type IPCheck struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64          `gorm:"index;not null" json:"userId"`
	TransactionID int64          `gorm:"uniqueIndex;not null" json:"transactionId"`
	IPAddress     string         `gorm:"type:varchar(64);not null" json:"ipAddress"`
	Country       *string        `gorm:"type:varchar(128)" json:"country"`
	City          *string        `gorm:"type:varchar(128)" json:"city"`
	ISP           *string        `gorm:"type:varchar(256)" json:"isp"`
	IsSpam        *bool          `json:"isSpam"`
	IsBlacklisted *bool          `json:"isBlacklisted"`
	Details       datatypes.JSON `json:"details"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (IPCheck) TableName() string {
	return "ip_checks"
}

// PhoneCheck is a stored phone reputation lookup.
type PhoneCheck struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64          `gorm:"index;not null" json:"userId"`
	TransactionID int64          `gorm:"uniqueIndex;not null" json:"transactionId"`
	PhoneNumber   string         `gorm:"type:varchar(32);not null" json:"phoneNumber"`
	Country       *string        `gorm:"type:varchar(128)" json:"country"`
	Operator      *string        `gorm:"type:varchar(128)" json:"operator"`
	IsActive      *bool          `json:"isActive"`
	IsSpam        *bool          `json:"isSpam"`
	IsVirtual     *bool          `json:"isVirtual"`
	FraudScore    int            `gorm:"not null;default:0" json:"fraudScore"`
	Details       datatypes.JSON `json:"details"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (PhoneCheck) TableName() string {
	return "phone_checks"
}
