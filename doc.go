// Package cinerec 是一个影视推荐引擎（Cinema Recommender）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → ReRank → PostProcess）
// - 三路召回: 内容相似（相似度矩阵）、协同过滤（评分预测）、情绪驱动（文本分类 + 类型映射）
// - 降级优先: 片内未命中、用户未知、分类失败、补全失败都有文档化的回退路径，
//   请求级错误不向用户暴露
package cinerec

import "github.com/cinerec/cinerec/pipeline"

// 轻量 facade：便于用户直接 import "cinerec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
