package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LJTian/HeraldHub/internal/api"
	"github.com/LJTian/HeraldHub/internal/collector"
	"github.com/LJTian/HeraldHub/internal/config"
	"github.com/LJTian/HeraldHub/internal/logger"
	"github.com/LJTian/HeraldHub/internal/metrics"
	"github.com/LJTian/HeraldHub/internal/scheduler"
	"github.com/LJTian/HeraldHub/internal/storage"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		logger.Log.Fatalf("init logger failed: %v", err)
	}

	// 源目录与访问路径在启动时校验，配置错误直接退出
	if err := cfg.LoadCatalog(); err != nil {
		logger.Log.Fatalf("load catalog failed: %v", err)
	}
	if err := config.Validate(cfg.Sources, cfg.AccessPaths); err != nil {
		logger.Log.Fatalf("invalid catalog: %v", err)
	}

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, cfg.CacheTTL)
	if err != nil {
		logger.Log.Fatalf("init store failed: %v", err)
	}
	sources, err := store.ResolveSources(cfg.Sources, cfg.AccessPaths)
	if err != nil {
		logger.Log.Fatalf("resolve sources failed: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	c, err := collector.NewFromConfig(cfg, m)
	if err != nil {
		logger.Log.Fatalf("init collector failed: %v", err)
	}

	agg := scheduler.NewAggregator(sources, c, scheduler.WithSink(store), scheduler.WithMetrics(m))
	s, err := scheduler.New(cfg.CronSpec, agg)
	if err != nil {
		logger.Log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// API
	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(store, agg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	logger.Log.Infof("starting api server at %s with %d sources ...", addr, len(sources))
	if err := r.Run(addr); err != nil {
		logger.Log.Fatalf("server exit: %v", err)
	}
}
