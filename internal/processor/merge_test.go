package processor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/HeraldHub/internal/config"
)

func TestDedupKey(t *testing.T) {
	assert.Equal(t, DedupKey("City Council Votes!"), DedupKey("city council votes"))
	assert.Equal(t, "citycouncilvotes", DedupKey("City Council Votes!"))
	assert.Equal(t, "", DedupKey("¿¡ — !?"))
	assert.Len(t, DedupKey(strings.Repeat("Ab1 ", 40)), MaxDedupKeyLength)
}

func TestDedupKeepsFirstAndDropsEmptyKeys(t *testing.T) {
	in := []Article{
		{Title: "City Council Votes!", SourceID: "a"},
		{Title: "city council votes", SourceID: "b"},
		{Title: "“—…”", SourceID: "c"},
		{Title: "Another story", SourceID: "d"},
	}

	out := Dedup(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].SourceID)
	assert.Equal(t, "d", out[1].SourceID)
}

func TestSortByRecencyUnknownLast(t *testing.T) {
	t1 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	articles := []Article{
		{Title: "unknown", Published: time.Time{}},
		{Title: "older", Published: t2},
		{Title: "newer", Published: t1},
	}

	SortByRecency(articles)
	assert.Equal(t, []string{"newer", "older", "unknown"}, titles(articles))
}

func TestMergeCountsAndDedupAcrossSources(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := config.Source{ID: "a", Category: "Hamilton"}
	b := config.Source{ID: "b", Category: "Ontario"}
	c := config.Source{ID: "c", Category: "Canada"}

	outcomes := []SourceOutcome{
		{Source: a, Articles: []Article{
			{Title: "Council approves new budget", SourceID: "a", Published: ts},
			{Title: "Transit fares frozen", SourceID: "a", Published: ts.Add(time.Hour)},
		}},
		{Source: b, Articles: []Article{
			{Title: "Council approves new budget", SourceID: "b", Published: ts.Add(2 * time.Hour)},
		}},
		{Source: c},
	}

	articles, live := Merge(outcomes)

	require.Len(t, articles, 2)
	assert.Equal(t, []string{"Transit fares frozen", "Council approves new budget"}, titles(articles))
	// 重复标题保留配置顺序中先出现的源
	assert.Equal(t, "a", articles[1].SourceID)

	require.Len(t, live, 2)
	assert.Equal(t, "a", live[0].ID)
	assert.Equal(t, 2, live[0].Count)
	assert.Equal(t, "b", live[1].ID)
	assert.Equal(t, 1, live[1].Count)
}

func titles(articles []Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}
