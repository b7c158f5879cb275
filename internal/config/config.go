package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string `env:"PORT" envDefault:"8080" validate:"required"` // サーバーポート
	GoEnv string `env:"GO_ENV" envDefault:"dev" validate:"oneof=dev prod test"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres" validate:"oneof=postgres sqlite"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	DatabaseURL      string `env:"DATABASE_URL"` // あれば POSTGRES_* より優先
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"farmmarket"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432" validate:"min=1,max=65535"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	DBMaxOpenConns   int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25" validate:"min=1"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"farmmarket.db"`

	JWTSecret string `env:"JWT_SECRET" validate:"required"` // JWT署名シークレット

	NatsURL       string `env:"NATS_URL"`   // 空ならNATSへは送らない
	RedisAddr     string `env:"REDIS_ADDR"` // 空ならRedisへは送らない
	RedisPassword string `env:"REDIS_PASSWORD"`

	// trueなら開札済みの商品への再オープンを409にする
	StrictReopen bool `env:"BIDDING_STRICT_REOPEN" envDefault:"false"`
}

// Loadは.env（任意）と環境変数から読む
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	//必須チェック
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// 先頭に":"がなければ付ける
func (c Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=" + url.QueryEscape(c.PostgresSSLMode),
	}
	return u.String()
}
