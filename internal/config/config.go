package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あればPostgres*より優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string
	DBMaxOpenConns   int

	JWTSecret string // JWT署名シークレット（発行は認証サービス側、ここは検証のみ）

	GoEnv    string // development/production
	FEURL    string // フロントURL（CORS）
	LogLevel string

	// 「明日」の計算に使うタイムゾーン
	Location       *time.Location
	RequestTimeout time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string // 画像URLの先頭（空ならendpointから組み立てる）

	UploadDir     string // MinIO未設定時の保存先
	MaxImageBytes int64
}

// 開発モードなら500の詳細をレスポンスに含める
func (c Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

func (c Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	maxConns, err := atoiOr("DB_MAX_OPEN_CONNS", 20)
	if err != nil {
		return Config{}, err
	}
	maxImage, err := atoiOr("MAX_IMAGE_BYTES", 5*1024*1024)
	if err != nil {
		return Config{}, err
	}
	timeout, err := durationOr("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	loc := time.Local
	if v := os.Getenv("APP_TIMEZONE"); v != "" {
		l, err := time.LoadLocation(v)
		if err != nil {
			return Config{}, fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
		}
		loc = l
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       getenv("POSTGRES_DB", "ebake"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		DBMaxOpenConns:   maxConns,

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv:    getenv("GO_ENV", "development"),
		FEURL:    getenv("FE_URL", "http://localhost:5173"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		Location:       loc,
		RequestTimeout: timeout,

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "cakes"),
		MinioUseSSL:    strings.EqualFold(os.Getenv("MINIO_USE_SSL"), "true"),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),

		UploadDir:     getenv("UPLOAD_DIR", "uploads"),
		MaxImageBytes: int64(maxImage),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" && cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("DATABASE_URL or POSTGRES_PASSWORD is required")
	}
	switch cfg.GoEnv {
	case "development", "production", "test":
	default:
		return Config{}, fmt.Errorf("GO_ENV must be development, production or test")
	}
	if cfg.MinioEnabled() && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "") {
		return Config{}, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
