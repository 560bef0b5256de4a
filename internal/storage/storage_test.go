package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/HeraldHub/internal/config"
	"github.com/LJTian/HeraldHub/internal/processor"
)

func result(gen uint64, n int, category string) processor.Result {
	articles := make([]processor.Article, 0, n)
	for i := 0; i < n; i++ {
		articles = append(articles, processor.Article{
			Title:    fmt.Sprintf("gen %d story %d", gen, i),
			Category: category,
		})
	}
	return processor.Result{Generation: gen, Articles: articles}
}

func TestCommitOnlyAcceptsNewerGeneration(t *testing.T) {
	s, err := NewStore("", "", 0)
	require.NoError(t, err)

	_, ok := s.Current()
	assert.False(t, ok)

	assert.True(t, s.Commit(result(2, 1, "x")))
	assert.False(t, s.Commit(result(1, 5, "x")), "older generation must not overwrite")
	assert.False(t, s.Commit(result(2, 5, "x")))

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(2), cur.Generation)
	assert.Len(t, cur.Articles, 1)
}

func TestListArticlesBeforeFirstCycle(t *testing.T) {
	s, err := NewStore("", "", 0)
	require.NoError(t, err)

	_, err = s.ListArticles(context.Background(), ArticleQuery{})
	assert.True(t, errors.Is(err, ErrNotReady))
}

func TestListArticlesFiltersAndPartitions(t *testing.T) {
	s, err := NewStore("", "", 0)
	require.NoError(t, err)

	r := result(1, 4, "Hamilton")
	r.Articles = append(r.Articles, result(1, 2, "Sports").Articles...)
	s.Commit(r)

	ctx := context.Background()

	all, err := s.ListArticles(ctx, ArticleQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 6)

	featured, err := s.ListArticles(ctx, ArticleQuery{Category: "Hamilton", Section: processor.SectionFeatured})
	require.NoError(t, err)
	assert.Len(t, featured, 3)

	more, err := s.ListArticles(ctx, ArticleQuery{Category: "Hamilton", Section: processor.SectionMore})
	require.NoError(t, err)
	assert.Len(t, more, 1)

	limited, err := s.ListArticles(ctx, ArticleQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = s.ListArticles(ctx, ArticleQuery{Section: "hot"})
	assert.True(t, errors.Is(err, ErrBadSection))
}

func TestListArticlesCachesPerGeneration(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewStore("", mr.Addr(), time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	s.Commit(result(1, 2, "Hamilton"))
	first, err := s.ListArticles(ctx, ArticleQuery{Category: "Hamilton"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	key := "herald:articles:1:Hamilton:all:0"
	assert.True(t, mr.Exists(key))
	mr.FastForward(30 * time.Second)
	assert.Greater(t, mr.TTL(key), time.Duration(0))

	// 缓存命中时直接返回缓存内容
	require.NoError(t, mr.Set(key, `[{"title":"from cache"}]`))
	cached, err := s.ListArticles(ctx, ArticleQuery{Category: "Hamilton"})
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "from cache", cached[0].Title)

	// 新一轮提交后换用新的键
	s.Commit(result(2, 3, "Hamilton"))
	fresh, err := s.ListArticles(ctx, ArticleQuery{Category: "Hamilton"})
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
	assert.True(t, mr.Exists("herald:articles:2:Hamilton:all:0"))
}

func TestChannelSourceRoundTrip(t *testing.T) {
	src := config.Source{
		ID:       "cbc-ham",
		Name:     "CBC Hamilton",
		Icon:     "📺",
		Color:    "#C8102E",
		URL:      "https://www.cbc.ca/cmlink/rss-canada-hamilton",
		Category: "Hamilton",
	}

	ch := sourceToChannel(src, 3)
	assert.Equal(t, ChannelActive, ch.Status)
	assert.Equal(t, 3, ch.Position)
	assert.Equal(t, src, channelToSource(*ch))

	// meta 缺失时展示字段为空
	bare := channelToSource(Channel{Code: "x", BaseURL: "https://x.example/rss"})
	assert.Equal(t, "", bare.Icon)
	assert.Equal(t, "", bare.Color)
}

func TestCatalogRequiresDatabase(t *testing.T) {
	s, err := NewStore("", "", 0)
	require.NoError(t, err)

	_, err = s.ActiveSources()
	assert.Error(t, err)
	assert.Error(t, s.SeedChannels(config.DefaultSources()))
}

func TestResolveSourcesWithoutDatabase(t *testing.T) {
	s, err := NewStore("", "", 0)
	require.NoError(t, err)

	catalog := config.DefaultSources()
	got, err := s.ResolveSources(catalog, config.DefaultAccessPaths())
	require.NoError(t, err)
	assert.Equal(t, catalog, got)
}

func TestResolveSourcesRejectsBrokenChannel(t *testing.T) {
	s, err := NewStore("", "", 0)
	require.NoError(t, err)

	// 库中 base_url 被清空的渠道
	broken := channelToSource(Channel{Code: "cbc-ham", Name: "CBC Hamilton", Status: ChannelActive})
	_, err = s.ResolveSources([]config.Source{broken}, config.DefaultAccessPaths())
	assert.Error(t, err)

	_, err = s.ResolveSources([]config.Source{channelToSource(Channel{BaseURL: "https://x.example/rss"})}, config.DefaultAccessPaths())
	assert.Error(t, err)

	_, err = s.ResolveSources(config.DefaultSources(), nil)
	assert.Error(t, err)
}
