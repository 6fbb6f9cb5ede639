// Package fetch 提供章节页面抓取实现
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"novel-trans-api/internal/config"
	"novel-trans-api/pkg/metrics"
)

var tracer = otel.Tracer("fetch")

// Client 抓取客户端
// 盗版站普遍封直连，可配置若干中转前缀逐个尝试；未配置时直连。
type Client struct {
	http      *http.Client
	relays    []string
	userAgent string
}

// NewClient 创建抓取客户端
func NewClient(cfg *config.CrawlerConfig) *Client {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		relays:    cfg.Relays,
		userAgent: cfg.UserAgent,
	}
}

// Attempts 返回可尝试的抓取通道数量
func (c *Client) Attempts() int {
	if len(c.relays) == 0 {
		return 1
	}
	return len(c.relays)
}

// Fetch 通过第 attempt 个通道抓取页面，返回解码后的 UTF-8 HTML
func (c *Client) Fetch(ctx context.Context, rawURL string, attempt int) (string, error) {
	relay := c.relayName(attempt)
	ctx, span := tracer.Start(ctx, "fetch.Fetch",
		trace.WithAttributes(
			attribute.String("fetch.url", rawURL),
			attribute.String("fetch.relay", relay),
		))
	defer span.End()

	start := time.Now()
	html, err := c.fetch(ctx, rawURL, attempt)
	metrics.CrawlDuration.WithLabelValues(relay).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.CrawlTotal.WithLabelValues(relay, "error").Inc()
		return "", err
	}
	metrics.CrawlTotal.WithLabelValues(relay, "success").Inc()
	return html, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string, attempt int) (string, error) {
	finalURL := rawURL
	if len(c.relays) > 0 {
		relay := c.relays[attempt%len(c.relays)]
		finalURL = relay + url.QueryEscape(rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	html := string(body)
	if needsGBK(resp.Header.Get("Content-Type"), html) {
		decoded, err := io.ReadAll(transform.NewReader(strings.NewReader(string(body)), simplifiedchinese.GBK.NewDecoder()))
		if err == nil {
			html = string(decoded)
		}
	}
	return html, nil
}

// needsGBK 判断页面是否声明了 GBK 系编码
func needsGBK(contentType, html string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "charset=gbk") || strings.Contains(ct, "charset=gb2312") {
		return true
	}
	lower := strings.ToLower(html)
	return strings.Contains(lower, "charset=gbk") || strings.Contains(lower, "charset=gb2312")
}

func (c *Client) relayName(attempt int) string {
	if len(c.relays) == 0 {
		return "direct"
	}
	relay := c.relays[attempt%len(c.relays)]
	if u, err := url.Parse(relay); err == nil && u.Host != "" {
		return u.Host
	}
	return relay
}
