package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyTransport 使用 colly 抓取，便于与 HTML 抓取类的采集器共用同一套 UA/超时设置。
// 每次请求新建 collector，避免 colly 的已访问记录影响下一轮采集。
type CollyTransport struct {
	timeout   time.Duration
	userAgent string
	base      http.RoundTripper
}

func NewCollyTransport(timeout time.Duration, userAgent string) *CollyTransport {
	return &CollyTransport{
		timeout:   timeout,
		userAgent: userAgent,
		base:      http.DefaultTransport,
	}
}

func (t *CollyTransport) Get(ctx context.Context, rawURL string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	opts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxResponseBytes),
		// 非 2xx 同样交给 OnResponse，由校验器统一处理状态码
		colly.ParseHTTPErrorResponse(),
	}
	if t.userAgent != "" {
		opts = append(opts, colly.UserAgent(t.userAgent))
	}
	c := colly.NewCollector(opts...)
	c.WithTransport(&ctxTransport{ctx: ctx, base: t.base})
	c.SetRequestTimeout(t.timeout)

	var (
		out Response
		got bool
	)
	c.OnResponse(func(r *colly.Response) {
		out = Response{StatusCode: r.StatusCode, Body: string(r.Body)}
		got = true
	})

	if err := c.Visit(rawURL); err != nil && !got {
		return Response{}, fmt.Errorf("colly get %s: %w", rawURL, err)
	}
	if !got {
		return Response{}, fmt.Errorf("colly get %s: no response", rawURL)
	}
	return out, nil
}

// ctxTransport 把本次尝试的 ctx 绑定到 colly 发出的请求上，使取消能中断进行中的请求
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(req.Context())
	stop := context.AfterFunc(t.ctx, cancel)

	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		stop()
		cancel()
		return nil, err
	}
	resp.Body = &releaseBody{ReadCloser: resp.Body, release: func() {
		stop()
		cancel()
	}}
	return resp, nil
}

type releaseBody struct {
	io.ReadCloser
	release func()
}

func (b *releaseBody) Close() error {
	err := b.ReadCloser.Close()
	b.release()
	return err
}
