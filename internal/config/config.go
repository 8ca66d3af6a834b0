package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type BillingConfig struct {
	DepositCapRatio  float64
	BestClientsLimit int
	PayMaxRetries    int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Billing     BillingConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Billing: BillingConfig{
			DepositCapRatio:  v.GetFloat64("DEPOSIT_CAP_RATIO"),
			BestClientsLimit: v.GetInt("BEST_CLIENTS_DEFAULT_LIMIT"),
			PayMaxRetries:    v.GetInt("PAY_MAX_RETRIES"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3001
	}
	if cfg.Billing.DepositCapRatio == 0 {
		cfg.Billing.DepositCapRatio = 0.25
	}
	if cfg.Billing.BestClientsLimit == 0 {
		cfg.Billing.BestClientsLimit = 2
	}
	if cfg.Billing.PayMaxRetries == 0 {
		cfg.Billing.PayMaxRetries = 3
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Billing.DepositCapRatio < 0 || cfg.Billing.DepositCapRatio > 1 {
		return fmt.Errorf("DEPOSIT_CAP_RATIO must be between 0 and 1")
	}
	if cfg.Billing.BestClientsLimit < 0 {
		return fmt.Errorf("BEST_CLIENTS_DEFAULT_LIMIT must not be negative")
	}
	return nil
}
