// Package builders 注册可从配置构建的内置 Node。
// 需要运行期依赖（片库、Store、补全客户端）的 Node 不在此列，
// 由调用方在代码里组装。
package builders

import (
	"fmt"
	"time"

	"github.com/cinerec/cinerec/config"
	"github.com/cinerec/cinerec/filter"
	"github.com/cinerec/cinerec/pipeline"
	"github.com/cinerec/cinerec/pkg/conv"
	"github.com/cinerec/cinerec/recall"
	"github.com/cinerec/cinerec/rerank"
)

func init() {
	config.Register("recall.popular", BuildPopularNode)
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("filter", BuildFilterNode)
}

// BuildPopularNode 构建静态热门召回：config.ids 为影片 id 列表。
func BuildPopularNode(cfg map[string]interface{}) (pipeline.Node, error) {
	ids := conv.SliceAnyToInt64(cfg["ids"])
	if ids == nil {
		ids = []int64{}
	}
	return &recall.PopularRecall{
		IDs: ids,
		Key: conv.ConfigGet(cfg, "key", ""),
	}, nil
}

// BuildFanoutNode 构建并发多路召回，目前只支持 popular 子源。
func BuildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		switch sourceType := conv.ConfigGet(sourceMap, "type", ""); sourceType {
		case "popular":
			ids := conv.SliceAnyToInt64(sourceMap["ids"])
			if ids == nil {
				ids = []int64{}
			}
			sources = append(sources, &recall.PopularRecall{IDs: ids})
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}
	fanout := &recall.Fanout{
		Sources: sources,
		Dedup:   conv.ConfigGet(cfg, "dedup", true),
	}
	if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = n
	}
	return fanout, nil
}

// BuildTopNNode 构建截断节点。
func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopN{N: conv.ConfigGetInt(cfg, "n", 10)}, nil
}

// BuildDiversityNode 构建类型打散节点。
func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{MaxPerGenre: conv.ConfigGetInt(cfg, "max_per_genre", 0)}, nil
}

// BuildFilterNode 构建过滤节点：filters 列表支持 poster 与 rule（CEL 表达式）。
// seen 过滤需要 Store 实例，不从配置构建。
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "poster":
			filters = append(filters, &filter.Poster{})
		case "rule":
			expr := conv.ConfigGet(filterMap, "expr", "")
			rule, err := filter.NewRule(expr)
			if err != nil {
				return nil, fmt.Errorf("compile rule %q: %w", expr, err)
			}
			filters = append(filters, rule)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.Node{Filters: filters}, nil
}
