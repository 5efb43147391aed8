// Package phonecheck scores phone numbers for fraud and spam.
package phonecheck

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrCheckFailed = errors.New("PHONECHECK_FAILED")
	ErrTimeout     = errors.New("PHONECHECK_TIMEOUT")
)

const (
	ProviderSimulated = "simulated"
	ProviderIPQS      = "ipqs"
)

type Config struct {
	Provider string        `mapstructure:"provider"`
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Country  string        `mapstructure:"country"`
	Operator string        `mapstructure:"operator"`
}

type Result struct {
	Country    string          `json:"country"`
	Operator   string          `json:"operator"`
	Active     bool            `json:"active"`
	Spam       bool            `json:"spam"`
	Virtual    bool            `json:"virtual"`
	FraudScore int             `json:"fraudScore"`
	Raw        json.RawMessage `json:"-"`
}

type Provider interface {
	Check(ctx context.Context, phone string) (Result, error)
}
