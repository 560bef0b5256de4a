package processor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// RFC 822 允许的北美时区缩写。dateparse 只认本机时区的缩写，其余会被当成 UTC
var zoneOffsets = map[string]string{
	"EST": "-0500", "EDT": "-0400",
	"CST": "-0600", "CDT": "-0500",
	"MST": "-0700", "MDT": "-0600",
	"PST": "-0800", "PDT": "-0700",
}

var zoneAbbrev = regexp.MustCompile(`\b(EST|EDT|CST|CDT|MST|MDT|PST|PDT)\b`)

// ParseTime 识别常见 feed 时间格式（RFC 1123/822、ISO 8601 等），无时区时按本地时间。
// 无法解析返回零值，排序时视为最旧。
func ParseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	raw = zoneAbbrev.ReplaceAllStringFunc(raw, func(z string) string { return zoneOffsets[z] })
	t, err := dateparse.ParseLocal(raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AgeLabel 相对时间标签；无法解析或时间在未来时返回空串
func AgeLabel(raw string, now time.Time) string {
	t := ParseTime(raw)
	if t.IsZero() {
		return ""
	}
	elapsed := now.Sub(t)
	if elapsed < 0 {
		return ""
	}

	m := int(elapsed / time.Minute)
	switch {
	case m < 1:
		return "just now"
	case m < 60:
		return fmt.Sprintf("%dm ago", m)
	}
	h := m / 60
	if h < 24 {
		return fmt.Sprintf("%dh ago", h)
	}
	if d := h / 24; d < 7 {
		return fmt.Sprintf("%dd ago", d)
	}
	return t.Local().Format("Jan 2")
}
