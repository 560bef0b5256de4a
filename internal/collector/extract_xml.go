package collector

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// xmlItems 先找 item（RSS），没有再找 entry（Atom）；文档解析失败返回空
func xmlItems(p XMLDocument) []RawItem {
	doc, err := xmlquery.Parse(strings.NewReader(p.Text))
	if err != nil {
		return nil
	}

	if nodes := capItems(elements(doc, "item")); len(nodes) > 0 {
		out := make([]RawItem, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, rssItem(n))
		}
		return out
	}

	nodes := capItems(elements(doc, "entry"))
	out := make([]RawItem, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, atomEntry(n))
	}
	return out
}

func rssItem(n *xmlquery.Node) RawItem {
	return RawItem{
		Title:       childText(n, "title"),
		Description: childText(n, "description"),
		Link:        childText(n, "link"),
		PubDate:     firstNonEmpty(childText(n, "pubDate"), dcDate(n)),
	}
}

func atomEntry(n *xmlquery.Node) RawItem {
	link := ""
	if l := firstElement(n, "link", anyPrefix); l != nil {
		link = attr(l, "href")
	}
	return RawItem{
		Title:       childText(n, "title"),
		Description: firstNonEmpty(childText(n, "summary"), childText(n, "content")),
		Link:        firstNonEmpty(link, childText(n, "link")),
		PubDate:     firstNonEmpty(childText(n, "published"), childText(n, "updated")),
	}
}

// prefixMatch 判断元素前缀；xmlquery 在未声明前缀时可能保留命名空间 URI
type prefixMatch func(prefix string) bool

func anyPrefix(string) bool { return true }

func dcPrefix(prefix string) bool {
	return prefix == "dc" || strings.Contains(prefix, "purl.org/dc")
}

// dcDate Dublin Core 的 dc:date，pubDate 缺失时的备选
func dcDate(n *xmlquery.Node) string {
	if el := firstElement(n, "date", dcPrefix); el != nil {
		return el.InnerText()
	}
	return ""
}

// childText 第一个同名后代元素的文本内容，不存在返回空串
func childText(n *xmlquery.Node, local string) string {
	if el := firstElement(n, local, anyPrefix); el != nil {
		return el.InnerText()
	}
	return ""
}

// firstElement 按文档顺序深度优先查找第一个匹配的后代元素
func firstElement(n *xmlquery.Node, local string, match prefixMatch) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local && match(c.Prefix) {
			return c
		}
		if found := firstElement(c, local, match); found != nil {
			return found
		}
	}
	return nil
}

// elements 按文档顺序收集所有同名元素（忽略命名空间前缀）
func elements(n *xmlquery.Node, local string) []*xmlquery.Node {
	var out []*xmlquery.Node
	var walk func(*xmlquery.Node)
	walk = func(p *xmlquery.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode && c.Data == local {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
