// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// ファイル制限
	MaxFileSize int64 // 単一ファイルの最大サイズ（バイト）
	MaxPages    int   // 単一ファイルの最大ページ数

	// ジョブ/キュー設定
	QueueRedisURL         string        // Asynq/ジョブリポジトリ用Redis接続URL
	PollInterval          time.Duration // キューが空のときのワーカーのポーリング間隔
	RetentionWindow       time.Duration // 終端状態のジョブを保持する期間
	CleanupInterval       time.Duration // 保持期間スイーパーの実行間隔
	AccessThreshold       int           // ダウンロード成功回数の上限
	AverageJobTimeSeconds int           // ETA計算に使う平均ジョブ処理時間
	WorkerConcurrency     int           // 1プロセスあたりのワーカー数

	// ハンドラータイムアウト
	HandlerTimeoutDefault time.Duration // PDF変換・圧縮系の既定タイムアウト
	HandlerTimeoutOffice  time.Duration // Office変換系のタイムアウト

	// PDF/Office処理設定
	GhostscriptPath string // Ghostscript実行ファイルのパス
	LibreOfficePath string // LibreOffice (soffice) 実行ファイルのパス
	PdftotextPath   string // poppler-utils pdftotext実行ファイルのパス (extractText用)

	// アーティファクトストア設定
	ArtifactBackend   string // "local" または "s3"
	ArtifactLocalRoot string // ローカルバックエンドのルートディレクトリ
	RawInputsBucket   string // 入力ファイル用バケット名
	ProcessedBucket   string // 処理結果用バケット名
	ArtifactBaseURL   string // ローカルバックエンドで公開URLを組み立てる際のベースURL

	// AWS設定 (S3バックエンド用)
	AWSRegion      string
	AWSEndpointURL string // S3互換エンドポイント（テスト・MinIO等）
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// サーバー設定
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// ファイル制限
		MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 104857600), // 100MB
		MaxPages:    getEnvAsInt("MAX_PAGES", 200),

		// ジョブ/キュー設定
		QueueRedisURL:         getEnv("QUEUE_REDIS_URL", "redis://127.0.0.1:6379/0"),
		PollInterval:          getEnvAsSeconds("POLL_INTERVAL_SECONDS", 5),
		RetentionWindow:       getEnvAsMinutes("RETENTION_MINUTES", 10),
		CleanupInterval:       getEnvAsMinutes("CLEANUP_INTERVAL_MINUTES", 10),
		AccessThreshold:       getEnvAsInt("ACCESS_THRESHOLD", 3),
		AverageJobTimeSeconds: getEnvAsInt("AVERAGE_JOB_TIME_SECONDS", 30),
		WorkerConcurrency:     getEnvAsInt("WORKER_CONCURRENCY", 4),

		// ハンドラータイムアウト
		HandlerTimeoutDefault: getEnvAsMinutes("HANDLER_TIMEOUT_DEFAULT_MINUTES", 5),
		HandlerTimeoutOffice:  getEnvAsMinutes("HANDLER_TIMEOUT_OFFICE_MINUTES", 10),

		// PDF/Office処理設定
		GhostscriptPath: getEnv("GHOSTSCRIPT_PATH", "gs"),
		LibreOfficePath: getEnv("LIBREOFFICE_PATH", "soffice"),
		PdftotextPath:   getEnv("PDFTOTEXT_PATH", "pdftotext"),

		// アーティファクトストア設定
		ArtifactBackend:   getEnv("ARTIFACT_BACKEND", "local"),
		ArtifactLocalRoot: getEnv("ARTIFACT_LOCAL_ROOT", "/tmp/docsmart-artifacts"),
		RawInputsBucket:   getEnv("RAW_INPUTS_BUCKET", "raw-inputs"),
		ProcessedBucket:   getEnv("PROCESSED_BUCKET", "processed-pdfs"),
		ArtifactBaseURL:   getEnv("ARTIFACT_BASE_URL", ""),

		// AWS設定
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
	}

	// 必須設定のバリデーション
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
func (c *Config) Validate() error {
	if c.GinMode == "release" {
		if c.QueueRedisURL == "" {
			return fmt.Errorf("QUEUE_REDIS_URL is required in release mode")
		}
		if c.GhostscriptPath == "" {
			return fmt.Errorf("GHOSTSCRIPT_PATH is required in release mode")
		}
		if c.ArtifactBackend == "s3" && c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required when ARTIFACT_BACKEND=s3")
		}
	}
	switch c.ArtifactBackend {
	case "local", "s3":
	default:
		return fmt.Errorf("ARTIFACT_BACKEND must be \"local\" or \"s3\", got %q", c.ArtifactBackend)
	}
	return nil
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

// getEnvAsInt64 は環境変数を64ビット整数として取得します。
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSeconds は環境変数を秒単位の time.Duration として取得します。
func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

// getEnvAsMinutes は環境変数を分単位の time.Duration として取得します。
func getEnvAsMinutes(key string, defaultMinutes int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultMinutes)) * time.Minute
}
