package model

import (
	"github.com/shopspring/decimal"
)

type ServiceKind string

const (
	ServiceKindIPCheck    ServiceKind = "ip_check"
	ServiceKindPhoneCheck ServiceKind = "phone_check"
	ServiceKindGeneric    ServiceKind = "generic"
)

// Service is an entry of the static catalog seeded at startup.
type Service struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind        ServiceKind     `gorm:"type:varchar(32);index;not null" json:"kind"`
	Name        string          `gorm:"type:varchar(128);not null" json:"name"`
	Description string          `gorm:"type:varchar(512);not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"price"`
	Icon        string          `gorm:"type:varchar(64);not null" json:"icon"`
	Available   bool            `gorm:"not null;default:true" json:"available"`
}

func (Service) TableName() string {
	return "services"
}

// HasDedicatedFlow reports whether purchases of this service must go through a lookup endpoint.
func (s *Service) HasDedicatedFlow() bool {
	return s.Kind == ServiceKindIPCheck || s.Kind == ServiceKindPhoneCheck
}
