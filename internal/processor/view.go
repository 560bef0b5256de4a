package processor

// 以下都是对已排序文章列表的只读投影，不修改输入

const (
	CategoryAll   = "all"
	FeaturedCount = 3
	TickerSize    = 25
)

// FilterByCategory 空串或 all 表示不过滤
func FilterByCategory(articles []Article, category string) []Article {
	if category == "" || category == CategoryAll {
		return articles
	}
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// Partition 前 3 篇为头条，其余为更多
func Partition(articles []Article) (featured, more []Article) {
	if len(articles) <= FeaturedCount {
		return articles, nil
	}
	return articles[:FeaturedCount], articles[FeaturedCount:]
}

func Ticker(articles []Article, n int) []Article {
	if n <= 0 || n > len(articles) {
		return articles
	}
	return articles[:n]
}

// Categories all 加上活跃源的分类，按首次出现顺序去重
func Categories(live []LiveFeed) []string {
	out := []string{CategoryAll}
	seen := map[string]struct{}{CategoryAll: {}}
	for _, f := range live {
		if _, ok := seen[f.Category]; ok {
			continue
		}
		seen[f.Category] = struct{}{}
		out = append(out, f.Category)
	}
	return out
}

// 文章列表的分区
const (
	SectionAll      = "all"
	SectionFeatured = "featured"
	SectionMore     = "more"
)

// Section 取出指定分区，未知分区返回 false
func Section(articles []Article, section string) ([]Article, bool) {
	switch section {
	case "", SectionAll:
		return articles, true
	case SectionFeatured:
		featured, _ := Partition(articles)
		return featured, true
	case SectionMore:
		_, more := Partition(articles)
		return more, true
	default:
		return nil, false
	}
}
