package core

import "context"

// 模型工件在引擎里被归约成两个能力接口：打分与分类。
// 具体加载机制（本地 JSON 工件、远程推理服务）是基础设施层的事，
// 任何满足签名的推理后端都可以接进来。

// RatingPredictor 是协同过滤模型的最小抽象：预测某用户对某影片的评分。
// 纯推理，无训练；未知用户按全局均值 + 物品偏置优雅降级。
type RatingPredictor interface {
	Name() string
	PredictRating(ctx context.Context, userID, itemID int64) (float64, error)
}

// Classifier 是情绪分类器的最小抽象：输入已清洗文本，输出固定闭集中的标签。
// 标签集合见 recall 包的情绪→类型映射表；未识别标签由调用方回退处理。
type Classifier interface {
	Name() string
	PredictLabel(ctx context.Context, text string) (string, error)
}
