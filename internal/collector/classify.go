package collector

import (
	"errors"
	"strings"

	"github.com/goccy/go-json"
)

// ErrUnrecognized 既不是合法 JSON 也看不出 RSS/Atom 结构，例如网关返回的纯文本页
var ErrUnrecognized = errors.New("unrecognized payload")

// Payload 分类后的响应内容，只有下面三种变体
type Payload interface {
	payload()
}

// FeedObject rss2json 风格：{"status":"ok","items":[...]}
type FeedObject struct {
	Items []any
}

// JSONObject 其它任意 JSON 值
type JSONObject struct {
	Value any
}

// XMLDocument 疑似 RSS/Atom 的原始文本
type XMLDocument struct {
	Text string
}

func (FeedObject) payload()  {}
func (JSONObject) payload()  {}
func (XMLDocument) payload() {}

var xmlMarkers = []string{"<rss", "<feed", "<channel"}

// Classify 仅根据内容嗅探格式，不看 URL 和 Content-Type（中转服务不可靠）。
// 同一正文多次分类结果一致。
func Classify(body string) (Payload, error) {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err == nil {
		if m, ok := v.(map[string]any); ok && m["status"] == "ok" && truthy(m["items"]) {
			items, _ := m["items"].([]any)
			return FeedObject{Items: items}, nil
		}
		return JSONObject{Value: v}, nil
	}

	for _, marker := range xmlMarkers {
		if strings.Contains(body, marker) {
			return XMLDocument{Text: body}, nil
		}
	}
	return nil, ErrUnrecognized
}

// truthy 按 JSON 值的真值语义判断：null/false/0/"" 为假，其余（含空数组、空对象）为真
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
