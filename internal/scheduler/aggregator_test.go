package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/HeraldHub/internal/collector"
	"github.com/LJTian/HeraldHub/internal/config"
	"github.com/LJTian/HeraldHub/internal/metrics"
	"github.com/LJTian/HeraldHub/internal/processor"
	"github.com/LJTian/HeraldHub/internal/storage"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type collectFunc func(ctx context.Context, src config.Source) ([]collector.RawItem, error)

func (f collectFunc) Collect(ctx context.Context, src config.Source) ([]collector.RawItem, error) {
	return f(ctx, src)
}

func rss2jsonBody(n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(
			`{"title":"Headline number %d","description":"<p>Body %d</p>","link":"https://feed.example/%d","pubDate":"2024-05-01 %02d:00:00"}`,
			i, i, i, 10-i))
	}
	return `{"status":"ok","feed":{"title":"x"},"items":[` + strings.Join(items, ",") + `]}`
}

func TestRunScenarioFeedObjectAndTimeout(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rss2jsonBody(5))
	}))
	defer ok.Close()

	hang := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer hang.Close()

	sources := []config.Source{
		{ID: "json", Category: "Hamilton", URL: ok.URL + "/feed"},
		{ID: "slow", Category: "Sports", URL: hang.URL + "/feed"},
	}
	chain := collector.ChainFromConfig([]config.AccessPath{{Name: "proxy", Template: hang.URL + "/?u={url}"}})
	c := collector.New(collector.NewHTTPTransport(5*time.Second, ""), chain, collector.WithTimeout(100*time.Millisecond))

	reg := prometheus.NewRegistry()
	store, err := storage.NewStore("", "", 0)
	require.NoError(t, err)
	agg := NewAggregator(sources, c, WithSink(store), WithMetrics(metrics.New(reg)), WithClock(func() time.Time { return fixedNow }))

	res, err := agg.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.Articles, 5)
	require.Len(t, res.LiveFeeds, 1)
	assert.Equal(t, "json", res.LiveFeeds[0].ID)
	assert.Equal(t, 5, res.LiveFeeds[0].Count)
	for _, a := range res.Articles {
		assert.Equal(t, "json", a.SourceID)
	}
	assert.Equal(t, "Headline number 0", res.Articles[0].Title)
	assert.Equal(t, "Body 0", res.Articles[0].Summary)
	assert.Equal(t, uint64(1), res.Generation)
	assert.NotEmpty(t, res.RunID)

	cur, ok2 := store.Current()
	require.True(t, ok2)
	assert.Equal(t, res.RunID, cur.RunID)

	expected := `
# HELP herald_live_sources Sources that produced at least one article in the last committed cycle.
# TYPE herald_live_sources gauge
herald_live_sources 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "herald_live_sources"))
}

func TestRunDedupsAcrossSources(t *testing.T) {
	c := collectFunc(func(ctx context.Context, src config.Source) ([]collector.RawItem, error) {
		return []collector.RawItem{
			{Title: "Council approves new budget", Link: "https://" + src.ID + ".example/budget", PubDate: "2024-05-01T09:00:00Z"},
			{Title: "Only from " + src.ID, Link: "https://" + src.ID + ".example/own", PubDate: "2024-05-01T08:00:00Z"},
		}, nil
	})

	sources := []config.Source{{ID: "first"}, {ID: "second"}}
	res, err := NewAggregator(sources, c, WithClock(func() time.Time { return fixedNow })).Run(context.Background())
	require.NoError(t, err)

	budget := 0
	for _, a := range res.Articles {
		if a.Title == "Council approves new budget" {
			budget++
			assert.Equal(t, "first", a.SourceID)
		}
	}
	assert.Equal(t, 1, budget)
	assert.Len(t, res.Articles, 3)
	// 计数按去重前统计
	require.Len(t, res.LiveFeeds, 2)
	assert.Equal(t, 2, res.LiveFeeds[1].Count)
}

func TestRunSurvivesFailingAndPanickingSources(t *testing.T) {
	c := collectFunc(func(ctx context.Context, src config.Source) ([]collector.RawItem, error) {
		switch src.ID {
		case "down":
			return nil, collector.ErrExhausted
		case "boom":
			panic("unexpected payload")
		}
		return []collector.RawItem{{Title: "Healthy source story"}}, nil
	})

	sources := []config.Source{{ID: "down"}, {ID: "boom"}, {ID: "fine"}}
	res, err := NewAggregator(sources, c).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.LiveFeeds, 1)
	assert.Equal(t, "fine", res.LiveFeeds[0].ID)
}

func TestStaleCycleDoesNotOverwriteNewer(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})

	c := collectFunc(func(ctx context.Context, src config.Source) ([]collector.RawItem, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []collector.RawItem{{Title: "Fresh cycle story"}}, nil
	})

	store, err := storage.NewStore("", "", 0)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	agg := NewAggregator([]config.Source{{ID: "only"}}, c, WithSink(store), WithMetrics(metrics.New(reg)))

	firstErr := make(chan error, 1)
	go func() {
		_, err := agg.Run(context.Background())
		firstErr <- err
	}()
	<-started

	res, err := agg.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Generation)

	select {
	case err := <-firstErr:
		assert.True(t, errors.Is(err, ErrStaleCycle))
	case <-time.After(2 * time.Second):
		t.Fatal("superseded cycle did not finish")
	}

	cur, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(2), cur.Generation)
	require.Len(t, cur.Articles, 1)
	assert.Equal(t, "Fresh cycle story", cur.Articles[0].Title)

	// 被取代的一轮晚结束也不能改写按源统计
	expected := `
# HELP herald_source_articles Articles contributed by each source in the last committed cycle.
# TYPE herald_source_articles gauge
herald_source_articles{source="only"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "herald_source_articles"))
}

func TestCancelledCycleIsNotCommitted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := collectFunc(func(ctx context.Context, src config.Source) ([]collector.RawItem, error) {
		cancel()
		return nil, ctx.Err()
	})

	store, err := storage.NewStore("", "", 0)
	require.NoError(t, err)
	store.Commit(processorResult(7))

	reg := prometheus.NewRegistry()
	agg := NewAggregator([]config.Source{{ID: "only"}}, c, WithSink(store), WithMetrics(metrics.New(reg)))
	_, err = agg.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	cur, _ := store.Current()
	assert.Equal(t, uint64(7), cur.Generation)

	n, err := testutil.GatherAndCount(reg, "herald_source_articles")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func processorResult(gen uint64) processor.Result {
	return processor.Result{Generation: gen, Articles: []processor.Article{{Title: "previous cycle"}}}
}
