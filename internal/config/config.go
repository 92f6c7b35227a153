package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	// Results are not persisted when DatabaseURL is empty.
	DatabaseURL        string `env:"DATABASE_URL"`
	DBMaxOpenConns     int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int    `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int    `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int    `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`
	// MigrationsDir, when set, is applied at startup.
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	JWTSecret            string        `env:"JWT_SECRET,required,notEmpty"`
	SignerPublicKeyPath  string        `env:"SIGNER_PUBLIC_KEY_PATH"`
	MaxUploadBytes       int64         `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	ResultRetention      time.Duration `env:"RESULT_RETENTION" envDefault:"720h"`
	RetentionSweepPeriod time.Duration `env:"RETENTION_SWEEP_INTERVAL" envDefault:"1h"`

	Validation Validation
}

// Validation is the immutable bundle of tolerances and policy flags handed to
// the validation engine.
type Validation struct {
	DeltaLine     decimal.Decimal `env:"DELTA_LINE" envDefault:"0.005"`
	DeltaTotalDoc decimal.Decimal `env:"DELTA_TOTAL_DOC" envDefault:"0.01"`
	DeltaCurrency decimal.Decimal `env:"DELTA_CURRENCY" envDefault:"0.005"`
	DeltaTable    decimal.Decimal `env:"DELTA_TABLE" envDefault:"0.01"`
	DeltaPayment  decimal.Decimal `env:"DELTA_PAYMENT" envDefault:"0.01"`

	// ContinuousLines requires line numbers 1..n; otherwise only duplicates
	// within a document are reported.
	ContinuousLines     bool `env:"CONTINUOUS_LINES" envDefault:"true"`
	AllowDebitAndCredit bool `env:"ALLOW_DEBIT_AND_CREDIT" envDefault:"false"`
	SignValidation      bool `env:"SIGN_VALIDATION" envDefault:"true"`
}

func DefaultValidation() Validation {
	return Validation{
		DeltaLine:       decimal.RequireFromString("0.005"),
		DeltaTotalDoc:   decimal.RequireFromString("0.01"),
		DeltaCurrency:   decimal.RequireFromString("0.005"),
		DeltaTable:      decimal.RequireFromString("0.01"),
		DeltaPayment:    decimal.RequireFromString("0.01"),
		ContinuousLines: true,
		SignValidation:  true,
	}
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validation.check(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// LoadValidation reads only the validation bundle, for tools that do not run
// the HTTP API.
func LoadValidation() (Validation, error) {
	v, err := env.ParseAs[Validation]()
	if err != nil {
		return Validation{}, fmt.Errorf("config.LoadValidation: %w", err)
	}
	if err := v.check(); err != nil {
		return Validation{}, fmt.Errorf("config.LoadValidation: %w", err)
	}
	return v, nil
}

func (v Validation) check() error {
	deltas := map[string]decimal.Decimal{
		"DELTA_LINE":      v.DeltaLine,
		"DELTA_TOTAL_DOC": v.DeltaTotalDoc,
		"DELTA_CURRENCY":  v.DeltaCurrency,
		"DELTA_TABLE":     v.DeltaTable,
		"DELTA_PAYMENT":   v.DeltaPayment,
	}
	for name, d := range deltas {
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}
	return nil
}
