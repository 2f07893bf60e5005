// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// ストレージドライバー名です。
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// MaxTokenTTLDays はアクセストークン有効期間の上限（日）です。
const MaxTokenTTLDays = 3650

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// 認証設定
	JWTSecret    string // アクセストークン署名用の秘密鍵（必須）
	TokenTTLDays int    // アクセストークンの有効期間（日）
	BcryptCost   int    // bcrypt のコスト

	// 認可設定
	AdminItemOverride bool // 管理者が他ユーザーの To-Do を更新・削除できるか

	// ストレージ設定
	StorageDriver string // sqlite または redis
	DatabasePath  string // SQLite ファイルのパス
	RedisURL      string // Redis ストアの接続URL

	// ジョブ/キュー設定
	QueueRedisURL string // Asynq用Redis接続URL（空ならその場で削除処理を実行）

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り、* は全許可）

	// ログ設定
	LogLevel string
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "4000"),
		GinMode: getEnv("GIN_MODE", "debug"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		TokenTTLDays: getEnvAsInt("TOKEN_TTL_DAYS", 30),
		BcryptCost:   getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),

		AdminItemOverride: getEnvAsBool("ADMIN_ITEM_OVERRIDE", false),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverSQLite)),
		DatabasePath:  getEnv("DATABASE_PATH", "todo.db"),
		RedisURL:      getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),

		QueueRedisURL: getEnv("QUEUE_REDIS_URL", ""),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
// 署名鍵はモードに関係なく必須です（起動後に変わるとトークン検証が成り立たないため）。
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTLDays <= 0 || c.TokenTTLDays > MaxTokenTTLDays {
		return fmt.Errorf("TOKEN_TTL_DAYS must be between 1 and %d", MaxTokenTTLDays)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	switch c.StorageDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite driver")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	return nil
}

// TokenTTL はアクセストークンの有効期間を返します。
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLDays) * 24 * time.Hour
}

// AllowedOrigins は CORS許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
