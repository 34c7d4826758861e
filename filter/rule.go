package filter

import (
	"context"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/pkg/dsl"
)

// Rule 是表达式驱动的过滤器：用 CEL 表达式描述“保留条件”，
// 表达式为假的条目被过滤。规则来自配置，改规则不用改代码。
//
// 示例：
//
//	keep, _ := filter.NewRule(`movie.vote_average >= 5.0`)
//	keep, _ := filter.NewRule(`!("Horror" in movie.genres)`)
type Rule struct {
	expr string
	prg  *dsl.Program
}

// NewRule 编译保留条件表达式。
func NewRule(expr string) (*Rule, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Rule{expr: expr, prg: prg}, nil
}

func (f *Rule) Name() string { return "filter.rule" }

// ShouldFilter 表达式求值失败时放行（过滤器错误不应吞掉候选）。
func (f *Rule) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.prg.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
