package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cinerec/cinerec/core"
)

// Catalog 是进程内的片库：启动时从 CSV 一次性加载，之后只读。
// 行号与相似度矩阵/协同过滤模型按位置 1:1 对齐，进程生命周期内不变。
// 重新加载片库意味着四个工件整体重建（model.Store 不支持中途热换）。
type Catalog struct {
	rows       []*core.Movie
	titleIndex map[string]int // lower(title) -> 行号；同名标题保留首个
}

// LoadCatalog 从 CSV 文件加载片库并构建标题索引。
// 必需列：id、title；可选列：genres（'|' 分隔）、poster_path、vote_average、release_date。
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadCatalog(f)
}

// ReadCatalog 从 reader 解析片库，便于测试与非文件来源。
func ReadCatalog(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"id", "title"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("catalog missing required column %q", required)
		}
	}

	c := &Catalog{titleIndex: make(map[string]int)}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row %d: %w", len(c.rows)+1, err)
		}

		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		id, err := strconv.ParseInt(field("id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: bad id %q", len(c.rows)+1, field("id"))
		}

		m := &core.Movie{
			ID:          id,
			Row:         len(c.rows),
			Title:       field("title"),
			PosterPath:  field("poster_path"),
			ReleaseDate: field("release_date"),
		}
		if g := field("genres"); g != "" {
			for _, part := range strings.Split(g, "|") {
				if part = strings.TrimSpace(part); part != "" {
					m.Genres = append(m.Genres, part)
				}
			}
		}
		if v := field("vote_average"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				m.VoteAverage = f
			}
		}

		key := strings.ToLower(m.Title)
		if _, exists := c.titleIndex[key]; !exists && key != "" {
			c.titleIndex[key] = m.Row
		}
		c.rows = append(c.rows, m)
	}

	if len(c.rows) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return c, nil
}

// Len 返回片库行数。
func (c *Catalog) Len() int { return len(c.rows) }

// Movie 按行号取影片；越界返回 nil。
func (c *Catalog) Movie(row int) *core.Movie {
	if row < 0 || row >= len(c.rows) {
		return nil
	}
	return c.rows[row]
}

// ByID 按 TMDB id 线性查找影片；片库规模有界，O(n) 可接受。
func (c *Catalog) ByID(id int64) *core.Movie {
	for _, m := range c.rows {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// RowIndexForTitle 按小写标题做 O(1) 精确查找。
func (c *Catalog) RowIndexForTitle(title string) (int, bool) {
	row, ok := c.titleIndex[strings.ToLower(strings.TrimSpace(title))]
	return row, ok
}

// Suggest 对标题做大小写无关的子串匹配，按片库顺序返回前 limit 个。
func (c *Catalog) Suggest(query string, limit int) []*core.Movie {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}
	out := make([]*core.Movie, 0, limit)
	for _, m := range c.rows {
		if strings.Contains(strings.ToLower(m.Title), query) {
			out = append(out, m)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}
