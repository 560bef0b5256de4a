package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LJTian/HeraldHub/internal/logger"
	"github.com/LJTian/HeraldHub/internal/processor"
)

// DefaultStartupDelay 首轮采集的延迟
const DefaultStartupDelay = 5 * time.Second

// Scheduler 按 cron 表达式周期性触发聚合
type Scheduler struct {
	cron         *cron.Cron
	agg          *Aggregator
	startupDelay time.Duration
}

func New(spec string, agg *Aggregator) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:         c,
		agg:          agg,
		startupDelay: DefaultStartupDelay,
	}

	_, err := c.AddFunc(spec, s.runOnce)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮采集，让 HTTP 服务先就绪
	time.AfterFunc(s.startupDelay, func() {
		go s.runOnce()
	})
}

// Stop 停止后续触发，返回的 ctx 在正在执行的任务结束后关闭
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发采集
func (s *Scheduler) RunOnce(ctx context.Context) (processor.Result, error) {
	return s.agg.Run(ctx)
}

func (s *Scheduler) runOnce() {
	_, err := s.agg.Run(context.Background())
	switch {
	case err == nil:
	case errors.Is(err, ErrStaleCycle):
		logger.Log.Info("scheduled cycle superseded by a newer run")
	default:
		logger.Log.Errorf("scheduled cycle failed: %v", err)
	}
}
