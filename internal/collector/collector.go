package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LJTian/HeraldHub/internal/config"
	"github.com/LJTian/HeraldHub/internal/logger"
	"github.com/LJTian/HeraldHub/internal/metrics"
)

// DefaultAttemptTimeout 单次访问尝试的默认超时
const DefaultAttemptTimeout = 12 * time.Second

// ErrExhausted 所有候选都失败，本轮该源无数据
var ErrExhausted = errors.New("all access paths failed")

// Collector 单个源的完整流水线：访问链 → 校验 → 分类 → 抽取
type Collector struct {
	transport Transport
	chain     *AccessChain
	limiter   *HostLimiter
	timeout   time.Duration
	metrics   *metrics.Metrics
}

type Option func(*Collector)

func WithTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLimiter(l *HostLimiter) Option {
	return func(c *Collector) { c.limiter = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

func New(transport Transport, chain *AccessChain, opts ...Option) *Collector {
	c := &Collector{
		transport: transport,
		chain:     chain,
		timeout:   DefaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig 按配置组装传输、访问链、限速与指标
func NewFromConfig(cfg *config.Config, m *metrics.Metrics) (*Collector, error) {
	transport, err := NewTransport(cfg.FetchBackend, cfg.FetchTimeout, cfg.UserAgent)
	if err != nil {
		return nil, err
	}
	return New(transport, ChainFromConfig(cfg.AccessPaths),
		WithTimeout(cfg.FetchTimeout),
		WithLimiter(NewHostLimiter(cfg.HostRate, cfg.HostBurst)),
		WithMetrics(m),
	), nil
}

// Collect 依次尝试访问候选，第一个通过校验且能识别格式的响应即被抽取。
// 抽取结果为空也不再重试：同一份内容换路径不会有不同结果。
func (c *Collector) Collect(ctx context.Context, src config.Source) ([]RawItem, error) {
	log := logger.Log.WithField("source", src.ID)

	for attempt := range c.chain.Candidates(src.URL) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := c.try(ctx, attempt)
		c.metrics.ObserveAttempt(attempt.Path, outcomeOf(err))
		if err != nil {
			log.WithField("path", attempt.Path).Debugf("attempt rejected: %v", err)
			continue
		}

		items := Extract(payload)
		log.WithField("path", attempt.Path).Debugf("extracted %d items", len(items))
		return items, nil
	}

	return nil, fmt.Errorf("%s: %w", src.ID, ErrExhausted)
}

func (c *Collector) try(ctx context.Context, attempt Attempt) (Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx, attempt.URL); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := c.transport.Get(ctx, attempt.URL)
	if err := Validate(resp, err); err != nil {
		return nil, err
	}
	return Classify(resp.Body)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrStatus):
		return metrics.OutcomeStatus
	case errors.Is(err, ErrTooShort):
		return metrics.OutcomeTooShort
	case errors.Is(err, ErrHTMLPage):
		return metrics.OutcomeHTML
	case errors.Is(err, ErrUnrecognized):
		return metrics.OutcomeUnrecognized
	default:
		return metrics.OutcomeTransport
	}
}
