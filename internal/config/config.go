package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// TatumConfig points at the wallet provider that issues deposit
// addresses and watches them for incoming transfers.
type TatumConfig struct {
	BaseURL string        `env:"TATUM_BASE_URL" envDefault:"https://api.tatum.io/v3"`
	APIKey  string        `env:"TATUM_API_KEY"`
	Timeout time.Duration `env:"TATUM_TIMEOUT" envDefault:"10s"`
}

type TelegramConfig struct {
	BaseURL string        `env:"TELEGRAM_BASE_URL" envDefault:"https://api.telegram.org"`
	Token   string        `env:"TELEGRAM_BOT_TOKEN"`
	Timeout time.Duration `env:"TELEGRAM_TIMEOUT" envDefault:"5s"`
}
