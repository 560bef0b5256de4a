package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/HeraldHub/internal/config"
	"github.com/LJTian/HeraldHub/internal/logger"
	"github.com/LJTian/HeraldHub/internal/processor"
	"github.com/LJTian/HeraldHub/internal/scheduler"
	"github.com/LJTian/HeraldHub/internal/storage"
)

// Runner 触发一轮聚合，由 scheduler.Aggregator 实现
type Runner interface {
	Run(ctx context.Context) (processor.Result, error)
	Sources() []config.Source
}

type Server struct {
	store   *storage.Store
	runner  Runner
	metrics http.Handler
}

// NewServer metrics 为空时不注册 /metrics
func NewServer(store *storage.Store, runner Runner, metrics http.Handler) *Server {
	return &Server{store: store, runner: runner, metrics: metrics}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/articles", s.listArticles)
		v1.GET("/ticker", s.ticker)
		v1.GET("/sources", s.sources)
		v1.GET("/categories", s.categories)
		v1.GET("/status", s.status)
		v1.POST("/refresh", s.refresh)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listArticles(c *gin.Context) {
	q := storage.ArticleQuery{
		Category: c.DefaultQuery("category", processor.CategoryAll),
		Section:  c.DefaultQuery("section", processor.SectionAll),
		Limit:    queryLimit(c, 0),
	}

	items, err := s.store.ListArticles(c.Request.Context(), q)
	switch {
	case errors.Is(err, storage.ErrNotReady):
		loading(c)
		return
	case errors.Is(err, storage.ErrBadSection):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "section must be one of all, featured, more",
		})
		return
	case err != nil:
		logger.Log.Errorf("list articles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	ok(c, nonNil(items))
}

func (s *Server) ticker(c *gin.Context) {
	snap, ready := s.store.Current()
	if !ready {
		loading(c)
		return
	}
	ok(c, nonNil(processor.Ticker(snap.Articles, queryLimit(c, processor.TickerSize))))
}

func (s *Server) sources(c *gin.Context) {
	snap, ready := s.store.Current()
	if !ready {
		loading(c)
		return
	}
	ok(c, nonNil(snap.LiveFeeds))
}

func (s *Server) categories(c *gin.Context) {
	snap, ready := s.store.Current()
	if !ready {
		loading(c)
		return
	}
	ok(c, processor.Categories(snap.LiveFeeds))
}

func (s *Server) status(c *gin.Context) {
	data := gin.H{
		"configuredSourceCount": len(s.runner.Sources()),
	}
	snap, ready := s.store.Current()
	if ready {
		data["generation"] = snap.Generation
		data["runId"] = snap.RunID
		data["completedAt"] = snap.CompletedAt
		data["articleCount"] = len(snap.Articles)
		data["liveSourceCount"] = len(snap.LiveFeeds)
	}

	code := "ok"
	if !ready {
		code = "loading"
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "message": "success", "data": data})
}

// refresh 同步执行一轮；客户端断开不会中断本轮
func (s *Server) refresh(c *gin.Context) {
	res, err := s.runner.Run(context.WithoutCancel(c.Request.Context()))
	if errors.Is(err, scheduler.ErrStaleCycle) {
		c.JSON(http.StatusConflict, gin.H{
			"code":    "superseded",
			"message": "a newer refresh replaced this one",
		})
		return
	}
	if err != nil {
		logger.Log.Errorf("manual refresh: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	ok(c, gin.H{
		"generation":      res.Generation,
		"runId":           res.RunID,
		"completedAt":     res.CompletedAt,
		"articleCount":    len(res.Articles),
		"liveSourceCount": len(res.LiveFeeds),
	})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

// loading 第一轮完成前列表接口返回空列表
func loading(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "loading",
		"message": "first aggregation cycle in progress",
		"data":    []any{},
	})
}

func queryLimit(c *gin.Context, def int) int {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return def
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
