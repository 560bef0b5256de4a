package collector

// rss2json 返回的条目字段直接取用
func feedObjectItems(p FeedObject) []RawItem {
	entries := capItems(p.Items)
	out := make([]RawItem, 0, len(entries))
	for _, e := range entries {
		m, _ := e.(map[string]any)
		out = append(out, RawItem{
			Title:       str(m["title"]),
			Description: firstNonEmpty(str(m["description"]), str(m["content"])),
			Link:        str(m["link"]),
			PubDate:     str(m["pubDate"]),
		})
	}
	return out
}

// 通用 JSON：优先 items 数组，否则取 feed.entry（GData 风格，单个 entry 视为一条）
func jsonObjectItems(p JSONObject) []RawItem {
	root, ok := p.Value.(map[string]any)
	if !ok {
		return nil
	}

	if raw, ok := root["items"]; ok && truthy(raw) {
		list, _ := raw.([]any)
		entries := capItems(list)
		out := make([]RawItem, 0, len(entries))
		for _, e := range entries {
			out = append(out, jsonItem(e))
		}
		return out
	}

	feed, _ := root["feed"].(map[string]any)
	var entries []any
	switch e := feed["entry"].(type) {
	case []any:
		entries = e
	case nil:
		return nil
	default:
		entries = []any{e}
	}
	entries = capItems(entries)

	out := make([]RawItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonEntry(e))
	}
	return out
}

// jsonItem items 数组中的条目，兼容 JSON Feed 1.x 字段名
func jsonItem(e any) RawItem {
	m, _ := e.(map[string]any)
	return RawItem{
		Title: text(m["title"]),
		Description: firstNonEmpty(
			text(m["description"]),
			text(m["summary"]),
			text(m["content"]),
			str(m["content_html"]),
			str(m["content_text"]),
		),
		Link:    firstNonEmpty(linkOf(m["link"]), str(m["url"])),
		PubDate: firstNonEmpty(text(m["pubDate"]), str(m["date_published"]), text(m["published"]), text(m["updated"])),
	}
}

// jsonEntry Atom 转 JSON 后的 entry，字段可能是 {"$t": "..."} 文本节点
func jsonEntry(e any) RawItem {
	m, _ := e.(map[string]any)
	return RawItem{
		Title:       text(m["title"]),
		Description: firstNonEmpty(text(m["summary"]), text(m["content"])),
		Link:        linkOf(m["link"]),
		PubDate:     firstNonEmpty(text(m["published"]), text(m["updated"])),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// text 取普通字符串或文本节点包装对象中的值
func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case map[string]any:
		return str(x["$t"])
	default:
		return ""
	}
}

// linkOf 优先 rel=alternate 的链接，否则取第一个；链接可以是字符串或带 href 的对象
func linkOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case map[string]any:
		return str(x["href"])
	case []any:
		for _, l := range x {
			if m, ok := l.(map[string]any); ok && m["rel"] == "alternate" {
				return str(m["href"])
			}
		}
		if len(x) == 0 {
			return ""
		}
		if s, ok := x[0].(string); ok {
			return s
		}
		first, _ := x[0].(map[string]any)
		return str(first["href"])
	default:
		return ""
	}
}
