package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/LJTian/HeraldHub/internal/collector"
	"github.com/LJTian/HeraldHub/internal/config"
	"github.com/LJTian/HeraldHub/internal/logger"
	"github.com/LJTian/HeraldHub/internal/metrics"
	"github.com/LJTian/HeraldHub/internal/processor"
)

// ErrStaleCycle 本轮在完成前已被更新的一轮取代，结果被丢弃
var ErrStaleCycle = errors.New("aggregation cycle superseded by a newer one")

// SourceCollector 单个源的采集流水线
type SourceCollector interface {
	Collect(ctx context.Context, src config.Source) ([]collector.RawItem, error)
}

// Sink 接收已提交的结果
type Sink interface {
	Commit(processor.Result) bool
}

// Aggregator 一轮聚合：并发采集所有源，汇合后归一化、去重、排序。
// 每轮开始时取一个递增的轮次号并取消上一轮；提交时不是最新一轮的结果直接丢弃。
type Aggregator struct {
	sources    []config.Source
	collector  SourceCollector
	normalizer *processor.Normalizer
	sink       Sink
	metrics    *metrics.Metrics
	now        func() time.Time

	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
}

type Option func(*Aggregator)

func WithSink(s Sink) Option {
	return func(a *Aggregator) { a.sink = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithClock 替换时钟，影响相对时间标签与完成时间
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func NewAggregator(sources []config.Source, c SourceCollector, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources:   sources,
		collector: c,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.normalizer = processor.NewNormalizer(a.now)
	return a
}

// Sources 参与聚合的源（配置顺序）
func (a *Aggregator) Sources() []config.Source {
	return a.sources
}

// Run 执行一轮完整聚合。可以重复调用；新调用会取代仍在进行的旧调用，
// 被取代的一轮返回 ErrStaleCycle，且不会覆盖新一轮的结果。
func (a *Aggregator) Run(ctx context.Context) (processor.Result, error) {
	gen, ctx, cancel := a.begin(ctx)
	defer cancel()

	start := time.Now()
	runID := uuid.NewString()
	log := logger.Log.WithFields(logrus.Fields{"generation": gen, "run_id": runID})
	log.Infof("start aggregation cycle over %d sources", len(a.sources))

	// 每个源写入自己的下标，汇合前互不共享
	outcomes := make([]processor.SourceOutcome, len(a.sources))
	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			outcomes[i] = a.collectOne(ctx, src, log)
			return nil
		})
	}
	_ = g.Wait()

	articles, live := processor.Merge(outcomes)
	result := processor.Result{
		Generation:  gen,
		RunID:       runID,
		Articles:    articles,
		LiveFeeds:   live,
		CompletedAt: a.now(),
	}

	if err := a.commit(ctx, result); err != nil {
		if errors.Is(err, ErrStaleCycle) {
			a.metrics.ObserveCycle(time.Since(start), metrics.CycleStale)
			log.Info("cycle superseded, result discarded")
		} else {
			a.metrics.ObserveCycle(time.Since(start), metrics.CycleCancelled)
			log.Warnf("cycle cancelled, result discarded: %v", err)
		}
		return result, err
	}

	a.metrics.ObserveCycle(time.Since(start), metrics.CycleCommitted)
	// 只有提交成功的一轮才更新按源统计，被取代的旧轮次不能覆盖
	for _, o := range outcomes {
		a.metrics.SetSourceArticles(o.Source.ID, len(o.Articles))
	}
	a.metrics.SetLiveSources(len(live))
	log.Infof("cycle done: %d articles from %d/%d live sources in %s",
		len(articles), len(live), len(a.sources), time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (a *Aggregator) begin(parent context.Context) (uint64, context.Context, context.CancelFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
	}
	a.latest++
	ctx, cancel := context.WithCancel(parent)
	a.cancel = cancel
	return a.latest, ctx, cancel
}

// commit 在锁内比较轮次号并交给 sink，保证旧结果不会晚于新结果写入。
// 调用方取消的一轮同样不提交，否则会用一份空结果覆盖上一轮。
func (a *Aggregator) commit(ctx context.Context, r processor.Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.Generation != a.latest {
		return ErrStaleCycle
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.sink != nil && !a.sink.Commit(r) {
		return ErrStaleCycle
	}
	return nil
}

func (a *Aggregator) collectOne(ctx context.Context, src config.Source, log *logrus.Entry) (out processor.SourceOutcome) {
	out.Source = src
	log = log.WithField("source", src.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("source pipeline panic: %v", r)
			out.Articles = nil
		}
	}()

	items, err := a.collector.Collect(ctx, src)
	if err != nil {
		log.Warnf("source unavailable this cycle: %v", err)
		return out
	}
	if len(items) == 0 {
		log.Info("source returned 0 items")
		return out
	}

	out.Articles = a.normalizer.Process(src, items)
	log.Debugf("fetched=%d kept=%d", len(items), len(out.Articles))
	return out
}
