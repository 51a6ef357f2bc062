package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// 候选池检索策略
const (
	RetrievalTrending = "trending" // TMDB 周榜直取
	RetrievalVector   = "vector"   // pgvector 向量相似度
)

// Config 应用配置
type Config struct {
	Env           string
	AppSecret     string
	DatabaseURL   string
	JWTExpiry     time.Duration
	Port          string
	SiteName      string
	SiteUrl       string
	TMDBToken     string
	GeminiAPIKey  string
	GeminiModel   string
	OllamaHost    string
	OllamaModel   string
	RetrievalMode string
	PoolSize      int  // 单次请求候选池上限
	SyncOnStart   bool // 启动时是否异步同步片库

	// AdminPasswordHash 管理密码的 bcrypt 哈希，启动时由明文换算
	AdminPasswordHash []byte
}

// Load 加载配置
func Load() *Config {
	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))
	poolSize, _ := strconv.Atoi(getEnv("POOL_SIZE", "60"))
	if poolSize <= 0 {
		poolSize = 60
	}

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "cinemood")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", "your-secret-key-change-in-production")
	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	retrievalMode := getEnv("RETRIEVAL_MODE", RetrievalTrending)
	if retrievalMode != RetrievalTrending && retrievalMode != RetrievalVector {
		log.Printf("[Config] 未知的检索模式 %q，回退到 %s", retrievalMode, RetrievalTrending)
		retrievalMode = RetrievalTrending
	}

	adminPassword := getEnv("ADMIN_PASSWORD", "admin123456")
	adminHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[Config] 管理密码哈希失败: %v", err)
	}

	return &Config{
		Env:               getEnv("APP_ENV", "development"),
		AppSecret:         appSecret,
		DatabaseURL:       dbURL,
		JWTExpiry:         time.Duration(expiryHours) * time.Hour,
		Port:              getEnv("PORT", "5008"),
		SiteName:          getEnv("SITE_NAME", "CineMood"),
		SiteUrl:           getEnv("SITE_URL", "http://localhost:5008"),
		TMDBToken:         getEnv("TMDB_TOKEN", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "nomic-embed-text"),
		RetrievalMode:     retrievalMode,
		PoolSize:          poolSize,
		SyncOnStart:       getEnv("SYNC_ON_START", "false") == "true",
		AdminPasswordHash: adminHash,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
