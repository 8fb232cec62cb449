package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
	"github.com/dreschagin/page-health-analyzer/pkg/config"
)

const maxRedirects = 5

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// PageCollector собирает метрики страницы одним инструментированным запросом.
// Реализует интерфейс port.PageMetricsCollector.
//
// Все четыре семейства метрик снимаются с одного замера: TTFB приходит из
// httptrace, время загрузки и размер получаются полным чтением тела,
// количество запросов считается по ссылкам на субресурсы в HTML.
type PageCollector struct {
	client       *http.Client
	maxBodyBytes int64
	userAgent    string

	// Параллельные Collect* по одному URL делят один замер
	mu       sync.Mutex
	inflight map[string]*pageProbe
}

// pageProbe хранит результат одного инструментированного запроса
type pageProbe struct {
	done chan struct{}

	pageSizeBytes float64
	loadTimeMs    float64
	ttfbMs        float64
	requestCount  float64
	err           error
}

// NewPageCollector создает новый collector страниц
func NewPageCollector(cfg config.CollectorConfig) *PageCollector {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "PageHealthBot/1.0"
	}

	return &PageCollector{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxConnsPerHost:     10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: redirectPolicy,
		},
		maxBodyBytes: maxBody,
		userAgent:    userAgent,
		inflight:     make(map[string]*pageProbe),
	}
}

// redirectPolicy ограничивает цепочку редиректов и блокирует не-http схемы
func redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// CollectPageSize возвращает размер страницы в байтах
func (c *PageCollector) CollectPageSize(ctx context.Context, url string) (entity.MetricSample, error) {
	probe, err := c.probe(ctx, url)
	if err != nil {
		return entity.MetricSample{}, err
	}
	return entity.NewMetricSample(valueobject.PageSize, probe.pageSizeBytes), nil
}

// CollectLoadTime возвращает полное время загрузки в миллисекундах
func (c *PageCollector) CollectLoadTime(ctx context.Context, url string) (entity.MetricSample, error) {
	probe, err := c.probe(ctx, url)
	if err != nil {
		return entity.MetricSample{}, err
	}
	return entity.NewMetricSample(valueobject.LoadTime, probe.loadTimeMs), nil
}

// CollectTTFB возвращает время до первого байта в миллисекундах
func (c *PageCollector) CollectTTFB(ctx context.Context, url string) (entity.MetricSample, error) {
	probe, err := c.probe(ctx, url)
	if err != nil {
		return entity.MetricSample{}, err
	}
	return entity.NewMetricSample(valueobject.TTFB, probe.ttfbMs), nil
}

// CollectRequestCount возвращает оценку числа сетевых запросов страницы
func (c *PageCollector) CollectRequestCount(ctx context.Context, url string) (entity.MetricSample, error) {
	probe, err := c.probe(ctx, url)
	if err != nil {
		return entity.MetricSample{}, err
	}
	return entity.NewMetricSample(valueobject.RequestCount, probe.requestCount), nil
}

// probe возвращает результат замера для URL; конкурентные вызовы по одному
// URL ждут общий замер вместо повторных запросов
func (c *PageCollector) probe(ctx context.Context, url string) (*pageProbe, error) {
	c.mu.Lock()
	if p, ok := c.inflight[url]; ok {
		c.mu.Unlock()
		select {
		case <-p.done:
			return p, p.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p := &pageProbe{done: make(chan struct{})}
	c.inflight[url] = p
	c.mu.Unlock()

	c.fetch(ctx, url, p)

	c.mu.Lock()
	delete(c.inflight, url)
	c.mu.Unlock()
	close(p.done)

	return p, p.err
}

// fetch выполняет один инструментированный GET и заполняет probe
func (c *PageCollector) fetch(ctx context.Context, url string, p *pageProbe) {
	var firstByteAt time.Time
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			firstByteAt = time.Now()
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, url, nil)
	if err != nil {
		p.err = fmt.Errorf("invalid request: %w", err)
		return
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	startedAt := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		p.err = fmt.Errorf("request failed: %w", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		p.err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		return
	}

	// Ограничиваем тело, считаем байты и параллельно скармливаем токенизатору
	counter := &countingReader{reader: io.LimitReader(resp.Body, c.maxBodyBytes)}
	requestCount := countSubresources(counter, resp.Header.Get("Content-Type"))

	finishedAt := time.Now()
	if firstByteAt.IsZero() {
		firstByteAt = finishedAt
	}

	p.pageSizeBytes = float64(counter.n)
	p.loadTimeMs = float64(finishedAt.Sub(startedAt).Milliseconds())
	p.ttfbMs = float64(firstByteAt.Sub(startedAt).Milliseconds())
	p.requestCount = float64(requestCount)
}

type countingReader struct {
	reader io.Reader
	n      int64
}

func (r *countingReader) Read(b []byte) (int, error) {
	n, err := r.reader.Read(b)
	r.n += int64(n)
	return n, err
}

// subresourceTags перечисляет теги, порождающие дополнительные сетевые запросы
var subresourceTags = map[string]string{
	"script": "src",
	"img":    "src",
	"iframe": "src",
	"source": "src",
	"link":   "href",
}

// countSubresources считает ссылки на субресурсы в HTML плюс сам документ.
// Не-HTML ответы читаются до конца ради размера и дают ровно один запрос.
func countSubresources(body io.Reader, contentType string) int {
	if !strings.Contains(contentType, "text/html") && contentType != "" {
		_, _ = io.Copy(io.Discard, body)
		return 1
	}

	count := 1 // сам документ
	z := html.NewTokenizer(body)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// EOF или битый HTML: возвращаем что насчитали
			_, _ = io.Copy(io.Discard, body)
			return count
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		name, hasAttr := z.TagName()
		attrName, tracked := subresourceTags[string(name)]
		if !tracked || !hasAttr {
			continue
		}
		if attrValue(z, attrName) != "" {
			count++
		}
	}
}

// attrValue возвращает значение атрибута текущего тега
func attrValue(z *html.Tokenizer, name string) string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == name {
			return string(val)
		}
		if !more {
			return ""
		}
	}
}
