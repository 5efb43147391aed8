package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tgwallet/pkg/cryptocloud"
	"tgwallet/pkg/ipapi"
	"tgwallet/pkg/phonecheck"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	StorageMemory = "memory"
	StorageMySQL  = "mysql"

	LockLocal = "local"
	LockRedis = "redis"
)

type Config struct {
	Server      ServerConfig       `mapstructure:"server"`
	Storage     StorageConfig      `mapstructure:"storage"`
	MySQL       MySQLConfig        `mapstructure:"mysql"`
	Redis       RedisConfig        `mapstructure:"redis"`
	Lock        LockConfig         `mapstructure:"lock"`
	Kafka       KafkaConfig        `mapstructure:"kafka"`
	Telegram    TelegramConfig     `mapstructure:"telegram"`
	CryptoCloud cryptocloud.Config `mapstructure:"cryptocloud"`
	IPAPI       ipapi.Config       `mapstructure:"ipapi"`
	PhoneCheck  phonecheck.Config  `mapstructure:"phonecheck"`
	Business    BusinessConfig     `mapstructure:"business"`
	Demo        DemoConfig         `mapstructure:"demo"`
	Log         LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LockConfig struct {
	Driver        string        `mapstructure:"driver"`
	TTL           time.Duration `mapstructure:"ttl"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type TelegramConfig struct {
	BotToken          string        `mapstructure:"bot_token"`
	AllowDemoIdentity bool          `mapstructure:"allow_demo_identity"`
	MaxAge            time.Duration `mapstructure:"max_age"`
}

type BusinessConfig struct {
	MinTopUpAmount    decimal.Decimal `mapstructure:"min_topup_amount"`
	OperationTimeout  time.Duration   `mapstructure:"operation_timeout"`
	InvoiceTTL        time.Duration   `mapstructure:"invoice_ttl"`
	ReconcileInterval time.Duration   `mapstructure:"reconcile_interval"`
	ReconcileGrace    time.Duration   `mapstructure:"reconcile_grace"`
	OutboxInterval    time.Duration   `mapstructure:"outbox_interval"`
	MaxRetryCount     int             `mapstructure:"max_retry_count"`
}

type DemoConfig struct {
	SeedData bool `mapstructure:"seed_data"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("storage.driver", StorageMemory)

	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.database", "tgwallet")
	v.SetDefault("mysql.max_open_conns", 20)
	v.SetDefault("mysql.max_idle_conns", 5)
	v.SetDefault("mysql.log_level", "warn")

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("lock.driver", LockLocal)
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("lock.retry_interval", 50*time.Millisecond)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "wallet.ledger")

	v.SetDefault("mysql.password", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", []string{})

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.allow_demo_identity", false)
	v.SetDefault("telegram.max_age", 24*time.Hour)

	v.SetDefault("cryptocloud.base_url", "https://api.cryptocloud.plus/v1")
	v.SetDefault("cryptocloud.api_key", "")
	v.SetDefault("cryptocloud.shop_id", "")
	v.SetDefault("cryptocloud.currency", "USDT")
	v.SetDefault("cryptocloud.callback_url", "")
	v.SetDefault("cryptocloud.webhook_secret", "")
	v.SetDefault("cryptocloud.timeout", 10*time.Second)

	v.SetDefault("ipapi.base_url", "https://ipapi.co")
	v.SetDefault("ipapi.timeout", 5*time.Second)

	v.SetDefault("phonecheck.provider", phonecheck.ProviderSimulated)
	v.SetDefault("phonecheck.api_key", "")
	v.SetDefault("phonecheck.base_url", "https://ipqualityscore.com/api/json/phone")
	v.SetDefault("phonecheck.timeout", 5*time.Second)
	v.SetDefault("phonecheck.country", "Russia")
	v.SetDefault("phonecheck.operator", "MTS")

	v.SetDefault("business.min_topup_amount", "10")
	v.SetDefault("business.operation_timeout", 15*time.Second)
	v.SetDefault("business.invoice_ttl", 24*time.Hour)
	v.SetDefault("business.reconcile_interval", time.Minute)
	v.SetDefault("business.reconcile_grace", 2*time.Minute)
	v.SetDefault("business.outbox_interval", time.Second)
	v.SetDefault("business.max_retry_count", 5)

	v.SetDefault("demo.seed_data", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig reads the YAML file at configPath, a .env file next to the binary if present,
// and environment overrides such as TELEGRAM_BOT_TOKEN or STORAGE_DRIVER. A missing
// file is not an error: defaults and the environment are enough for a local run.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(decimalHook())); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageMySQL:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Lock.Driver {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("config: unknown lock driver %q", c.Lock.Driver)
	}
	if c.Telegram.BotToken == "" && !c.Telegram.AllowDemoIdentity {
		return errors.New("config: telegram.bot_token is required unless demo identity is allowed")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("config: kafka.brokers is required when kafka is enabled")
	}
	if !c.Business.MinTopUpAmount.IsPositive() {
		return errors.New("config: business.min_topup_amount must be positive")
	}
	if c.Business.OperationTimeout <= 0 {
		return errors.New("config: business.operation_timeout must be positive")
	}
	return nil
}
