package core

import "github.com/cinerec/cinerec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/输入信息，贯穿整个 Pipeline 透传。
//
// 分支优先级由 MoodText / Query 决定：
//   - MoodText 非空：情绪召回
//   - 否则 Query 非空：相似内容召回
//   - 两者皆空：只返回个性化列表
type RecommendContext struct {
	// UserID 使用 string 类型（通用，支持所有 ID 格式）。
	// 协同过滤召回时按文档化规则归一为整数（可解析则直接用，
	// 否则取其字符串形式的稳定哈希）。
	UserID string

	// MoodText 自由文本心情输入（情绪召回分支）
	MoodText string

	// Query 参考影片标题（相似内容召回分支）
	Query string

	// N 每个列表期望的条目数；<=0 时由编排层钳到默认值
	N int

	// Profile 用户画像特征（如类型偏好权重），可由 Feast 在线特征注入；
	// 为空时所有召回源都能正常工作
	Profile map[string]float64

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（设备、场景等），召回源按需读取
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
