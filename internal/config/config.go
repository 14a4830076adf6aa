package config

import (
	"fmt"
	"os"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTSecret string // JWT署名シークレット

	GoEnv string // dev/prod
	FEURL string // フロントURL（CORSで使う）

	DatabaseURL string // DSN直指定。あれば個別項目より優先
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
}

// Loadは環境変数から読む
func Load() (Config, error) {
	cfg := Config{
		Port:      envOr("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		GoEnv:     envOr("GO_ENV", "dev"),
		FEURL:     os.Getenv("FE_URL"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      envOr("POSTGRES_HOST", "localhost"),
		DBPort:      envOr("POSTGRES_PORT", "5432"),
		DBUser:      envOr("POSTGRES_USER", "postgres"),
		DBPassword:  envOr("POSTGRES_PASSWORD", "postgres"),
		DBName:      envOr("POSTGRES_DB", "agrikonnect"),
		DBSSLMode:   envOr("POSTGRES_SSLMODE", "disable"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// DSN は接続文字列。DATABASE_URLがあればそれをそのまま使う。
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func envOr(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
