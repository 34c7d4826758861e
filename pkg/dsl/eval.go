package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/cinerec/cinerec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("movie", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是一条编译好的过滤表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可并发多次 Eval。
//
// 表达式语法（CEL 标准语法）：
//   - movie.vote_average >= 5.0
//   - item.score > 0.7 && label.recall_source == "similar"
//   - "Horror" in movie.genres
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。表达式为空时返回恒真的 Program。
func Compile(expr string) (*Program, error) {
	p := &Program{expr: expr}
	if expr == "" {
		return p, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	p.prg = prg
	return p, nil
}

// Eval 对单个 item 执行表达式，返回布尔结果。
// 访问不存在的 key 会报错；表达式应使用 label.key != null 检查存在性。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p.prg == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
// label.xxx 直接取 Label 的 Value，便于写短表达式。
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	movie := map[string]any{}
	if m := item.Movie; m != nil {
		genres := make([]any, 0, len(m.Genres))
		for _, g := range m.Genres {
			genres = append(genres, g)
		}
		movie = map[string]any{
			"id":           m.ID,
			"title":        m.Title,
			"genres":       genres,
			"vote_average": m.VoteAverage,
			"release_date": m.ReleaseDate,
		}
	}

	in := map[string]any{
		"item": map[string]any{
			"id":    item.ID,
			"score": item.Score,
		},
		"movie": movie,
		"label": labels,
		"rctx":  map[string]any{},
	}
	if rctx != nil {
		in["rctx"] = map[string]any{
			"user_id":   rctx.UserID,
			"mood_text": rctx.MoodText,
			"query":     rctx.Query,
		}
	}
	return in
}
