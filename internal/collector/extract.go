package collector

// MaxItemsPerSource 每个源每轮最多取的条目数
const MaxItemsPerSource = 12

// Extract 按分类结果抽取条目，最多 MaxItemsPerSource 条。
// 任何结构问题都只会得到空列表，不向外抛错。
func Extract(p Payload) (items []RawItem) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
		}
	}()

	switch v := p.(type) {
	case FeedObject:
		return feedObjectItems(v)
	case JSONObject:
		return jsonObjectItems(v)
	case XMLDocument:
		return xmlItems(v)
	default:
		return nil
	}
}

func capItems[T any](s []T) []T {
	if len(s) > MaxItemsPerSource {
		return s[:MaxItemsPerSource]
	}
	return s
}

// firstNonEmpty 返回第一个非空串
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
