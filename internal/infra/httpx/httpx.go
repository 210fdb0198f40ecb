// Package httpx 提供抓取叙述文档（论文 HTML/TeX）的 HTTP client：固定 UA、可选代理、有界重试、
// 以及带大小上限的读取。
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultRetryMax = 2

	// UserAgent 标识本工具的请求。
	UserAgent = "z32-claims/2.0"
	// MaxBodyBytes 是单个文档的读取上限。
	MaxBodyBytes = 16 << 20
)

// ErrBodyTooLarge 表示响应体超过 MaxBodyBytes。
var ErrBodyTooLarge = errors.New("httpx: response body too large")

// StatusError 表示服务器返回了非 2xx 的 HTTP 状态码。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// Transport 把“UA + keep-alive 策略 + 有界重试”固化为统一策略。
type Transport struct {
	Base *http.Transport

	UserAgent string

	// RetryMax 表示最大重试次数（不含首次尝试）。例如 2 表示最多 3 次尝试。
	RetryMax int

	// DisableKeepAlives 决定是否对 Request 设置 Close=true。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只对“可重放”的请求做重试：GET/HEAD 且无 body。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
			r.Header.Set("User-Agent", t.UserAgent)
		}
		if t.DisableKeepAlives {
			r.Close = true
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			// ctx 已取消：不再重试。
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// NewDocClient 构造抓取文档用的 HTTP client。
//
// 规则：
// - proxyURL 非空：走代理，且禁用 keep-alive（每请求新连接）
// - 有界重试 + 总超时
func NewDocClient(proxyURL string) (*http.Client, error) {
	proxyURL = strings.TrimSpace(proxyURL)
	base := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	tr := &Transport{
		Base:      base,
		UserAgent: UserAgent,
		RetryMax:  defaultRetryMax,
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		tr.DisableKeepAlives = true
	}
	return &http.Client{Transport: tr, Timeout: defaultTimeout}, nil
}

// Get 读取 u 的响应体；非 2xx 返回 *StatusError。
func Get(ctx context.Context, c *http.Client, u string) ([]byte, string, error) {
	if c == nil {
		return nil, "", errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &StatusError{URL: u, StatusCode: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(b) > MaxBodyBytes {
		return nil, "", ErrBodyTooLarge
	}
	return b, resp.Header.Get("Content-Type"), nil
}
