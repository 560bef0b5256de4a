package collector

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinBodyLength 响应正文最少字符数，更短的一律视为无效
const MinBodyLength = 50

var (
	ErrStatus   = errors.New("non-success status")
	ErrTooShort = errors.New("body too short")
	// ErrHTMLPage 中转服务常以 200 返回 HTML 错误页或验证码页
	ErrHTMLPage = errors.New("html error page")
)

// Validate 判断一次尝试是否可用：传输失败、非 2xx、正文过短、HTML 页面依次拒绝。
// 只看外形，不涉及格式语义。
func Validate(resp Response, transportErr error) error {
	if transportErr != nil {
		return transportErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	if utf8.RuneCountInString(resp.Body) < MinBodyLength {
		return ErrTooShort
	}
	trimmed := strings.TrimFunc(resp.Body, isBlank)
	if strings.HasPrefix(trimmed, "<!") || strings.HasPrefix(trimmed, "<html") {
		return ErrHTMLPage
	}
	return nil
}

// isBlank 空白与 BOM 一并去掉，部分中转服务会在错误页前带 U+FEFF
func isBlank(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}
