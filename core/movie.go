package core

// Movie 是片库（catalog）中的一行：以外部元数据源（TMDB）的 id 为唯一标识，
// Row 是它在片库中的行号。相似度矩阵与协同过滤模型都按行号对齐，
// 因此 id 与行号在进程生命周期内保持稳定。
type Movie struct {
	ID          int64    // TMDB id，片库内唯一
	Row         int      // 片库行号，与模型矩阵 1:1 对齐
	Title       string
	Genres      []string // 可能为空：参考数据中 genres 字段不可靠
	PosterPath  string
	VoteAverage float64
	ReleaseDate string
}

// HasGenre 判断影片是否带有给定类型标签。
func (m *Movie) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// EnrichedMovie 是补全元数据后的展示记录。
// 元数据源查询失败时产出降级记录：只保留 ID/Title，其余为零值，
// 不会把错误透传给调用方。
type EnrichedMovie struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	PosterURL   string   `json:"poster_url"` // 绝对地址；无海报时为空串
	VoteAverage float64  `json:"vote_average"`
	ReleaseDate string   `json:"release_date"`
	Genres      []string `json:"genres"`
	Overview    string   `json:"overview"`
	Degraded    bool     `json:"-"` // 标记降级记录，便于观测；不参与序列化
}
