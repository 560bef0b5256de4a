package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/LJTian/HeraldHub/internal/logger"
	"github.com/LJTian/HeraldHub/internal/processor"
)

// DefaultCacheTTL 列表缓存时长
const DefaultCacheTTL = 5 * time.Minute

var (
	// ErrNotReady 第一轮采集尚未完成
	ErrNotReady = errors.New("no aggregation result yet")
	// ErrBadSection 未知的文章分区
	ErrBadSection = errors.New("unknown section")
)

// Store 持有当前一轮的聚合结果；DB 只存放源目录，Redis 只做列表缓存，二者都可为空
type Store struct {
	DB    *gorm.DB
	Redis *redis.Client

	cacheTTL time.Duration

	mu   sync.RWMutex
	snap *processor.Result
}

// NewStore dsn 为空时不连接数据库，redisAddr 为空时不启用缓存
func NewStore(dsn, redisAddr string, cacheTTL time.Duration) (*Store, error) {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	s := &Store{cacheTTL: cacheTTL}

	if dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.AutoMigrate(&Channel{}); err != nil {
			return nil, fmt.Errorf("migrate channels: %w", err)
		}
		s.DB = db
	}

	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Log.Warnf("redis ping failed: %v", err)
		}
		s.Redis = rdb
	}

	return s, nil
}

// Commit 只接受比当前更新的一轮结果，返回是否已替换
func (s *Store) Commit(r processor.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil && r.Generation <= s.snap.Generation {
		return false
	}
	s.snap = &r
	return true
}

// Current 返回当前结果；第一轮完成前 ok 为 false
func (s *Store) Current() (processor.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return processor.Result{}, false
	}
	return *s.snap, true
}

// ArticleQuery 文章列表查询条件
type ArticleQuery struct {
	Category string
	Section  string
	Limit    int
}

// ListArticles 按分类与分区返回当前结果中的文章，并使用 Redis 做简单缓存。
// 缓存键带上轮次号，新一轮提交后旧缓存自然失效。
func (s *Store) ListArticles(ctx context.Context, q ArticleQuery) ([]processor.Article, error) {
	snap, ok := s.Current()
	if !ok {
		return nil, ErrNotReady
	}
	if q.Category == "" {
		q.Category = processor.CategoryAll
	}
	if q.Section == "" {
		q.Section = processor.SectionAll
	}
	if q.Limit < 0 {
		q.Limit = 0
	}

	cacheKey := fmt.Sprintf("herald:articles:%d:%s:%s:%d", snap.Generation, q.Category, q.Section, q.Limit)

	// L2: Redis 缓存
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []processor.Article
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	list, ok := processor.Section(processor.FilterByCategory(snap.Articles, q.Category), q.Section)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadSection, q.Section)
	}
	if q.Limit > 0 && len(list) > q.Limit {
		list = list[:q.Limit]
	}

	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, s.cacheTTL).Err()
		}
	}

	return list, nil
}
