package config

import (
	"os"
	"strconv"
	"time"

	"github.com/LJTian/HeraldHub/internal/logger"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string
	CacheTTL    time.Duration

	CronSpec string

	// 采集相关
	FetchTimeout time.Duration
	FetchBackend string // http / colly
	UserAgent    string
	HostRate     float64 // 每个主机每秒请求数，0 表示不限速
	HostBurst    int

	// 源目录：为空时使用内置目录
	SourcesFile string
	Sources     []Source
	AccessPaths []AccessPath

	LogLevel string
	LogFile  string

	// 可选：全站 Basic Auth，两项都配置时启用
	BasicAuthUser string
	BasicAuthPass string
}

const (
	BackendHTTP  = "http"
	BackendColly = "colly"
)

func Load() *Config {
	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "9000"),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		CacheTTL:      getDuration("CACHE_TTL", 5*time.Minute),
		CronSpec:      getEnv("CRON_SPEC", "*/10 * * * *"),
		FetchTimeout:  getDuration("FETCH_TIMEOUT", 12*time.Second),
		FetchBackend:  getEnv("FETCH_BACKEND", BackendHTTP),
		UserAgent:     getEnv("FETCH_USER_AGENT", "HeraldHubBot/1.0"),
		HostRate:      getFloat("HOST_RATE", 4),
		HostBurst:     getInt("HOST_BURST", 4),
		SourcesFile:   getEnv("SOURCES_FILE", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),
	}

	logger.Log.Infof("config loaded: port=%s cron=%s backend=%s timeout=%s", cfg.AppPort, cfg.CronSpec, cfg.FetchBackend, cfg.FetchTimeout)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Log.Warnf("config: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Log.Warnf("config: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		logger.Log.Warnf("config: invalid %s=%q, using %g", key, v, def)
		return def
	}
	return f
}
