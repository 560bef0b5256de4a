package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/LJTian/HeraldHub/internal/collector"
	"github.com/LJTian/HeraldHub/internal/config"
)

const (
	// MaxSummaryRunes 摘要最多保留的字符数
	MaxSummaryRunes = 300
	// MinTitleRunes 去除标记后标题少于该长度的条目直接丢弃
	MinTitleRunes = 6
)

// Article 归一化后的文章，创建后不再修改，随下一轮采集整体替换
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Age       string    `json:"age"`
	PubDate   string    `json:"pubDate"`
	Published time.Time `json:"published"`
	SourceID  string    `json:"sourceId"`
	Category  string    `json:"category"`
}

// Normalizer 把原始条目清洗为 Article
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Process 清洗一个源的全部条目，保持原有顺序；标题过短的条目被丢弃
func (p *Normalizer) Process(src config.Source, items []collector.RawItem) []Article {
	now := p.now()
	out := make([]Article, 0, len(items))

	for _, it := range items {
		title := StripMarkup(it.Title)
		if utf8.RuneCountInString(title) < MinTitleRunes {
			continue
		}
		link := strings.TrimSpace(it.Link)

		out = append(out, Article{
			ID:        hashURL(link),
			Title:     title,
			Summary:   truncateRunes(StripMarkup(it.Description), MaxSummaryRunes),
			Link:      link,
			Age:       AgeLabel(it.PubDate, now),
			PubDate:   it.PubDate,
			Published: ParseTime(it.PubDate),
			SourceID:  src.ID,
			Category:  src.Category,
		})
	}

	return out
}

// StripMarkup 按 HTML 解析取纯文本，合并连续空白
func StripMarkup(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := s
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}

// truncateRunes 按字符截断，不追加省略号
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
