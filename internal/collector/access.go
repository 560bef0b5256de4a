package collector

import (
	"iter"
	"net/url"
	"strings"

	"github.com/LJTian/HeraldHub/internal/config"
)

// PathDirect 直连源地址时的访问路径名
const PathDirect = "direct"

// Attempt 一个具体的访问候选
type Attempt struct {
	Path string
	URL  string
}

// AccessPath 纯函数式的 URL 改写，例如 CORS 中转或 feed 转 JSON 服务
type AccessPath struct {
	Name    string
	Rewrite func(origin string) string
}

// TemplatePath 把形如 https://proxy/?u={url} 的模板转换为改写函数
func TemplatePath(p config.AccessPath) AccessPath {
	tpl := p.Template
	return AccessPath{
		Name: p.Name,
		Rewrite: func(origin string) string {
			return strings.ReplaceAll(tpl, config.URLPlaceholder, url.QueryEscape(origin))
		},
	}
}

// AccessChain 固定顺序的访问候选：源地址本身在前，其后每条备用路径一个改写结果。
// 不记录上一轮哪条路径成功，每轮都从头开始。
type AccessChain struct {
	paths []AccessPath
}

func NewAccessChain(paths ...AccessPath) *AccessChain {
	return &AccessChain{paths: paths}
}

// ChainFromConfig 按配置顺序构造访问链
func ChainFromConfig(paths []config.AccessPath) *AccessChain {
	out := make([]AccessPath, 0, len(paths))
	for _, p := range paths {
		out = append(out, TemplatePath(p))
	}
	return NewAccessChain(out...)
}

// Len 候选总数（含直连）
func (c *AccessChain) Len() int {
	return len(c.paths) + 1
}

// Candidates 惰性生成候选；调用方 break 后不再计算后续改写
func (c *AccessChain) Candidates(origin string) iter.Seq[Attempt] {
	return func(yield func(Attempt) bool) {
		if !yield(Attempt{Path: PathDirect, URL: origin}) {
			return
		}
		for _, p := range c.paths {
			if !yield(Attempt{Path: p.Name, URL: p.Rewrite(origin)}) {
				return
			}
		}
	}
}
