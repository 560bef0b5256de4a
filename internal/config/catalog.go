package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source 描述一个新闻源，启动时加载后不再修改
type Source struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Icon     string `yaml:"icon" json:"icon"`
	Color    string `yaml:"color" json:"color"`
	URL      string `yaml:"url" json:"url"`
	Category string `yaml:"category" json:"category"`
}

// AccessPath 一条备用访问路径：Template 中的 {url} 会被替换为转义后的源地址
type AccessPath struct {
	Name     string `yaml:"name" json:"name"`
	Template string `yaml:"template" json:"template"`
}

// URLPlaceholder 访问路径模板中的源地址占位符
const URLPlaceholder = "{url}"

// Catalog 对应 SOURCES_FILE 的 YAML 结构
type Catalog struct {
	Sources     []Source     `yaml:"sources"`
	AccessPaths []AccessPath `yaml:"access_paths"`
}

// DefaultAccessPaths 直连失败后依次尝试的中转服务
func DefaultAccessPaths() []AccessPath {
	return []AccessPath{
		{Name: "allorigins", Template: "https://api.allorigins.win/raw?url={url}"},
		{Name: "corsproxy", Template: "https://corsproxy.io/?{url}"},
		{Name: "rss2json", Template: "https://api.rss2json.com/v1/api.json?rss_url={url}"},
	}
}

// DefaultSources 内置的 Hamilton 本地及加拿大新闻源
func DefaultSources() []Source {
	return []Source{
		{ID: "cbc-ham", Name: "CBC Hamilton", Icon: "📺", Color: "#C8102E", URL: "https://www.cbc.ca/cmlink/rss-canada-hamilton", Category: "Hamilton"},
		{ID: "global-ham", Name: "Global News Hamilton", Icon: "📡", Color: "#1565C0", URL: "https://globalnews.ca/hamilton/feed/", Category: "Hamilton"},
		{ID: "bayobserver", Name: "Bay Observer", Icon: "🌊", Color: "#0077B6", URL: "https://bayobserver.ca/feed/", Category: "Hamilton"},
		{ID: "mcmaster", Name: "McMaster Daily News", Icon: "🎓", Color: "#7A003C", URL: "https://dailynews.mcmaster.ca/feed/", Category: "McMaster"},
		{ID: "cfl", Name: "CFL News", Icon: "🏈", Color: "#FFB81C", URL: "https://www.cfl.ca/feed/", Category: "Sports"},
		{ID: "cbc-ca", Name: "CBC Canada", Icon: "🇨🇦", Color: "#B71C1C", URL: "https://www.cbc.ca/cmlink/rss-topstories", Category: "Canada"},
		{ID: "cbc-on", Name: "CBC Toronto", Icon: "📺", Color: "#D32F2F", URL: "https://www.cbc.ca/cmlink/rss-canada-toronto", Category: "Ontario"},
		{ID: "reddit", Name: "r/Hamilton", Icon: "💬", Color: "#FF4500", URL: "https://www.reddit.com/r/Hamilton/.rss", Category: "Community"},
		{ID: "spec", Name: "The Spec", Icon: "📰", Color: "#2D3748", URL: "https://www.thespec.com/rss/", Category: "Hamilton"},
		{ID: "citynews", Name: "CityNews Toronto", Icon: "📺", Color: "#0D47A1", URL: "https://toronto.citynews.ca/feed/", Category: "Ontario"},
		{ID: "cbc-politics", Name: "CBC Politics", Icon: "🏛️", Color: "#4A148C", URL: "https://www.cbc.ca/cmlink/rss-politics", Category: "Politics"},
		{ID: "cbc-business", Name: "CBC Business", Icon: "💼", Color: "#1B5E20", URL: "https://www.cbc.ca/cmlink/rss-business", Category: "Business"},
		{ID: "cbc-health", Name: "CBC Health", Icon: "🏥", Color: "#00838F", URL: "https://www.cbc.ca/cmlink/rss-health", Category: "Health"},
		{ID: "cbc-tech", Name: "CBC Tech & Science", Icon: "🔬", Color: "#4527A0", URL: "https://www.cbc.ca/cmlink/rss-technology", Category: "Tech"},
	}
}

// LoadCatalog 读取 SOURCES_FILE；未配置时使用内置目录。
// 文件中缺省 access_paths 时沿用内置的中转服务。
func (c *Config) LoadCatalog() error {
	c.Sources = DefaultSources()
	c.AccessPaths = DefaultAccessPaths()
	if c.SourcesFile == "" {
		return nil
	}

	cat, err := ReadCatalog(c.SourcesFile)
	if err != nil {
		return err
	}
	c.Sources = cat.Sources
	if len(cat.AccessPaths) > 0 {
		c.AccessPaths = cat.AccessPaths
	}
	return nil
}

// ReadCatalog 从 YAML 文件解析源目录
func ReadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return &cat, nil
}

// Validate 在启动阶段检查静态配置，配置错误直接失败而不是在每轮采集中暴露
func Validate(sources []Source, paths []AccessPath) error {
	if len(sources) == 0 {
		return errors.New("config: no sources configured")
	}
	if len(paths) == 0 {
		return errors.New("config: at least one access path is required")
	}

	seen := make(map[string]struct{}, len(sources))
	for i, s := range sources {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("config: source #%d has empty id", i)
		}
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("config: duplicate source id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		if err := checkURL(s.URL); err != nil {
			return fmt.Errorf("config: source %q: %w", s.ID, err)
		}
	}

	names := make(map[string]struct{}, len(paths))
	for i, p := range paths {
		if p.Name == "" || p.Name == "direct" {
			return fmt.Errorf("config: access path #%d needs a name other than %q", i, "direct")
		}
		if _, ok := names[p.Name]; ok {
			return fmt.Errorf("config: duplicate access path %q", p.Name)
		}
		names[p.Name] = struct{}{}
		if !strings.Contains(p.Template, URLPlaceholder) {
			return fmt.Errorf("config: access path %q template lacks %s", p.Name, URLPlaceholder)
		}
		if err := checkURL(strings.ReplaceAll(p.Template, URLPlaceholder, "x")); err != nil {
			return fmt.Errorf("config: access path %q: %w", p.Name, err)
		}
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", raw)
	}
	return nil
}
