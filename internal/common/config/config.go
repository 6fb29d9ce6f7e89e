package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"novelreader"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"5m"`
		MigrationsPath  string        `env:"POSTGRES_MIGRATIONS_PATH" envDefault:"migrations"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	PayPal struct {
		ClientID  string `env:"PAYPAL_CLIENT_ID" envDefault:""`
		Secret    string `env:"PAYPAL_SECRET" envDefault:""`
		BaseURL   string `env:"PAYPAL_BASE_URL" envDefault:"https://api-m.sandbox.paypal.com"`
		ReturnURL string `env:"PAYPAL_RETURN_URL" envDefault:"http://localhost:3000/payment/success"`
		CancelURL string `env:"PAYPAL_CANCEL_URL" envDefault:"http://localhost:3000/payment/cancel"`
	}

	Cache struct {
		// TTL for chapter entries in the persistent tier. Roughly one reading
		// session; entries are simply re-fetched after expiry.
		ChapterTTL time.Duration `env:"CACHE_CHAPTER_TTL" envDefault:"12h"`
		SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	}

	AdminIDs []string `env:"ADMIN_IDS" envSeparator:","`
}

// PostgresDSN builds the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password,
		c.Postgres.Database, c.Postgres.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// .env is optional; in production the variables are set directly.
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
