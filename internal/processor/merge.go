package processor

import (
	"sort"
	"strings"
	"time"

	"github.com/LJTian/HeraldHub/internal/config"
)

// MaxDedupKeyLength 去重键最多保留的字符数
const MaxDedupKeyLength = 50

// LiveFeed 本轮至少产出一篇文章的源及其文章数
type LiveFeed struct {
	config.Source
	Count int `json:"count"`
}

// SourceOutcome 单个源在一轮中的结果，Articles 为空表示该源本轮无数据
type SourceOutcome struct {
	Source   config.Source
	Articles []Article
}

// Result 一轮聚合的最终结果
type Result struct {
	Generation  uint64     `json:"generation"`
	RunID       string     `json:"runId"`
	Articles    []Article  `json:"articles"`
	LiveFeeds   []LiveFeed `json:"liveFeeds"`
	CompletedAt time.Time  `json:"completedAt"`
}

// Merge 按源的配置顺序拼接、去重、按时间倒序排列。
// 文章数按去重前统计，与各源实际产出一致。
func Merge(outcomes []SourceOutcome) ([]Article, []LiveFeed) {
	var (
		all  []Article
		live []LiveFeed
	)
	for _, o := range outcomes {
		if len(o.Articles) == 0 {
			continue
		}
		live = append(live, LiveFeed{Source: o.Source, Count: len(o.Articles)})
		all = append(all, o.Articles...)
	}

	articles := Dedup(all)
	SortByRecency(articles)
	return articles, live
}

// DedupKey 标题转小写后只保留 a-z0-9，截取前 50 个字符
func DedupKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
			if b.Len() == MaxDedupKeyLength {
				break
			}
		}
	}
	return b.String()
}

// Dedup 保留每个键第一次出现的文章；键为空的文章一律丢弃
func Dedup(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		k := DedupKey(a.Title)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}

// SortByRecency 按发布时间倒序的稳定排序，时间未知的排在最后
func SortByRecency(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Published.After(articles[j].Published)
	})
}
