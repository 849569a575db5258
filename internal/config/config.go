package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	LogLevel         string   `mapstructure:"LOG_LEVEL"`
	DBHost           string   `mapstructure:"DB_HOST"`
	DBPort           string   `mapstructure:"DB_PORT"`
	DBUser           string   `mapstructure:"DB_USER"`
	DBPassword       string   `mapstructure:"DB_PASSWORD"`
	DBName           string   `mapstructure:"DB_NAME"`
	DBSSLMode        string   `mapstructure:"DB_SSLMODE"`
	RedisAddr        string   `mapstructure:"REDIS_ADDR"`
	RedisPassword    string   `mapstructure:"REDIS_PASSWORD"`
	JWTAccessSecret  string   `mapstructure:"JWT_ACCESS_SECRET"`
	JWTRefreshSecret string   `mapstructure:"JWT_REFRESH_SECRET"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	NormalizeCron    string   `mapstructure:"NORMALIZE_CRON"`
	GaugeCron        string   `mapstructure:"GAUGE_CRON"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"REDIS_ADDR", "REDIS_PASSWORD",
	"JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET",
	"CORS_ORIGINS", "NORMALIZE_CRON", "GAUGE_CRON",
}

// Load reads .env (unless ENV_CHEK is set, as in containers) and then the
// process environment. Environment values win over .env values.
func Load() (*Config, error) {
	if os.Getenv("ENV_CHEK") == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("NORMALIZE_CRON", "0 */10 * * * *")
	v.SetDefault("GAUGE_CRON", "*/30 * * * * *")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// the decode hook splits on "," but keeps the surrounding spaces
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBUser == "" || c.DBName == "" {
		return errors.New("DB_USER and DB_NAME are required")
	}
	if c.JWTAccessSecret == "" || c.JWTRefreshSecret == "" {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// DSN builds the postgres connection string in the key=value form gorm's driver expects.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
