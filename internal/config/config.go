package config

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Cron    CronConfig    `mapstructure:"cron"`
	Clob    ClobConfig    `mapstructure:"clob"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Trade   TradeConfig   `mapstructure:"trade"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// AuthConfig holds the two API-key tiers: L1 for user maintenance endpoints,
// L2 for destructive admin endpoints. An L2 key also passes L1 checks.
type AuthConfig struct {
	L1Key string `mapstructure:"l1_key"`
	L2Key string `mapstructure:"l2_key"`
}

type CronConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	MarketSync string `mapstructure:"market_sync"`
}

type ClobConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WebhookConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	SubscriberURL string        `mapstructure:"subscriber_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// TradeConfig carries the per-order USDC cap as a string so the limit never
// passes through binary floating point. "0" or empty disables the cap.
type TradeConfig struct {
	MaxOrderUSDC string `mapstructure:"max_order_usdc"`
}

func (t TradeConfig) MaxOrder() (decimal.Decimal, error) {
	if t.MaxOrderUSDC == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(t.MaxOrderUSDC)
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("auth.l1_key", "")
	v.SetDefault("auth.l2_key", "")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.market_sync", "@every 10m")
	v.SetDefault("clob.base_url", "https://clob.polymarket.com")
	v.SetDefault("clob.timeout", "15s")
	v.SetDefault("webhook.enabled", false)
	v.SetDefault("webhook.subscriber_url", "http://localhost:8001/market-event")
	v.SetDefault("webhook.timeout", "2s")
	v.SetDefault("trade.max_order_usdc", "0")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
