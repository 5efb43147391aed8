package cryptocloud

import "time"

type Config struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	ShopID        string        `mapstructure:"shop_id"`
	Currency      string        `mapstructure:"currency"`
	CallbackURL   string        `mapstructure:"callback_url"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	Timeout       time.Duration `mapstructure:"timeout"`
}
