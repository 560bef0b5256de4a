package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LJTian/HeraldHub/internal/config"
)

// maxResponseBytes 单次响应读取上限，防止异常大的 feed 占满内存
const maxResponseBytes = 4 << 20 // 4MB

// RawItem 抽取后、尚未清洗的条目；缺失字段一律为空串
type RawItem struct {
	Title       string
	Description string
	Link        string
	PubDate     string
}

// Response 一次访问尝试的结果，仅在本次尝试内使用
type Response struct {
	StatusCode int
	Body       string
}

// Transport 抽象“带超时与取消的 GET”，由宿主环境提供。
// 返回 error 表示传输层失败（超时、连接错误等）；非 2xx 状态码不算传输失败。
type Transport interface {
	Get(ctx context.Context, rawURL string) (Response, error)
}

// NewTransport 按配置选择采集后端，未知后端在启动时直接报错
func NewTransport(backend string, timeout time.Duration, userAgent string) (Transport, error) {
	switch backend {
	case "", config.BackendHTTP:
		return NewHTTPTransport(timeout, userAgent), nil
	case config.BackendColly:
		return NewCollyTransport(timeout, userAgent), nil
	default:
		return nil, fmt.Errorf("collector: unknown fetch backend %q", backend)
	}
}

// HTTPTransport 基于 net/http 的默认实现
type HTTPTransport struct {
	client    *http.Client
	userAgent string
}

func NewHTTPTransport(timeout time.Duration, userAgent string) *HTTPTransport {
	return &HTTPTransport{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return Response{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
