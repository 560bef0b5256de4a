package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/LJTian/HeraldHub/internal/collector"
	"github.com/LJTian/HeraldHub/internal/config"
	"github.com/LJTian/HeraldHub/internal/logger"
	"github.com/LJTian/HeraldHub/internal/scheduler"
	"github.com/LJTian/HeraldHub/internal/storage"
)

// 一个仅执行一轮聚合的命令行入口：结果以 JSON 输出到 stdout，日志写 stderr
func main() {
	logger.Log.SetOutput(os.Stderr)
	cfg := config.Load()
	if err := logger.InitTo(os.Stderr, cfg.LogLevel, cfg.LogFile); err != nil {
		logger.Log.Fatalf("init logger failed: %v", err)
	}

	if err := cfg.LoadCatalog(); err != nil {
		logger.Log.Fatalf("load catalog failed: %v", err)
	}
	if err := config.Validate(cfg.Sources, cfg.AccessPaths); err != nil {
		logger.Log.Fatalf("invalid catalog: %v", err)
	}

	// 与 cmd/api 保持一致：配置了数据库时以库中启用的渠道为准
	store, err := storage.NewStore(cfg.PostgresDSN, "", cfg.CacheTTL)
	if err != nil {
		logger.Log.Fatalf("init store failed: %v", err)
	}
	sources, err := store.ResolveSources(cfg.Sources, cfg.AccessPaths)
	if err != nil {
		logger.Log.Fatalf("resolve sources failed: %v", err)
	}

	c, err := collector.NewFromConfig(cfg, nil)
	if err != nil {
		logger.Log.Fatalf("init collector failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := scheduler.NewAggregator(sources, c).Run(ctx)
	if err != nil {
		logger.Log.Fatalf("aggregation failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Log.Fatalf("encode result failed: %v", err)
	}
}
