// Package tmdb 是外部影片元数据源（The Movie Database）的 HTTP 客户端。
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cinerec/cinerec/core"
)

const (
	// DefaultBaseURL 是 TMDB v3 API 根地址。
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// DefaultPosterBaseURL 是海报绝对地址前缀（w500 规格）。
	DefaultPosterBaseURL = "https://image.tmdb.org/t/p/w500"
)

// Client 按影片 id 拉取完整元数据：GET {base}/movie/{id}?api_key=...
// 尽力而为：非 2xx 或响应不可解析由调用方（enrich 包）降级处理，
// Client 只负责把失败如实报告出来。重试/退避也归调用侧策略，这里不做。
type Client struct {
	// BaseURL 服务根地址，默认 DefaultBaseURL
	BaseURL string
	// APIKey 查询参数形式的 API key
	APIKey string
	// PosterBaseURL 海报地址前缀，默认 DefaultPosterBaseURL
	PosterBaseURL string
	// Timeout 请求超时，默认 10s
	Timeout time.Duration

	httpClient *http.Client
}

// Option 配置 Client。
type Option func(*Client)

// WithHTTPClient 设置自定义 HTTP 客户端（测试注入 httptest 用）。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPosterBaseURL 设置海报地址前缀。
func WithPosterBaseURL(base string) Option {
	return func(c *Client) { c.PosterBaseURL = base }
}

// WithTimeout 设置请求超时。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.Timeout = d }
}

// NewClient 创建 TMDB 客户端。
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		PosterBaseURL: DefaultPosterBaseURL,
		Timeout:       10 * time.Second,
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}

// movieDocument 是 TMDB 响应中本客户端关心的字段子集。
type movieDocument struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Overview string `json:"overview"`
}

// Details 拉取并归一化单部影片的元数据。
func (c *Client) Details(ctx context.Context, id int64) (*core.EnrichedMovie, error) {
	u := fmt.Sprintf("%s/movie/%d?%s", strings.TrimRight(c.BaseURL, "/"), id,
		url.Values{"api_key": {c.APIKey}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("tmdb: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb: request movie %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("tmdb: movie %d: status %d", id, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tmdb: read movie %d: %w", id, err)
	}
	var doc movieDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("tmdb: parse movie %d: %w", id, err)
	}

	out := &core.EnrichedMovie{
		ID:          doc.ID,
		Title:       doc.Title,
		PosterURL:   c.posterURL(doc.PosterPath),
		VoteAverage: doc.VoteAverage,
		ReleaseDate: doc.ReleaseDate,
		Overview:    doc.Overview,
	}
	for _, g := range doc.Genres {
		if g.Name != "" {
			out.Genres = append(out.Genres, g.Name)
		}
	}
	return out, nil
}

// posterURL 把相对海报路径拼成绝对地址；无海报返回空串。
func (c *Client) posterURL(path string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.PosterBaseURL, "/") + path
}
