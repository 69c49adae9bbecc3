package main

import (
	"log/slog"
	"time"

	"github.com/rollhouse/ledgerd/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// WebhookSecret is the HMAC key shared with the deposit notifier.
	WebhookSecret string `env:"DEPOSIT_WEBHOOK_SECRET"`

	// CallbackURL is handed to the wallet provider when subscribing a
	// new deposit address; empty disables subscriptions.
	CallbackURL string `env:"DEPOSIT_CALLBACK_URL" envDefault:""`

	Postgres config.PostgresConfig
	Redis    config.RedisConfig
	Tatum    config.TatumConfig
	Telegram config.TelegramConfig
}
