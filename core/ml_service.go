package core

import "context"

// MLService 是远程推理服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（service）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 情绪分类器跑在推理服务上（KServe 协议）而非进程内 JSON 工件
//   - 协同过滤打分外置时的批量预测
type MLService interface {
	// Predict 批量预测
	Predict(ctx context.Context, req *MLPredictRequest) (*MLPredictResponse, error)

	// Health 健康检查
	Health(ctx context.Context) error

	// Close 关闭连接
	Close(ctx context.Context) error
}

// MLPredictRequest 预测请求
type MLPredictRequest struct {
	// Instances 特征实例列表（每个实例是一个特征向量）
	Instances [][]float64

	// Texts 文本实例列表（文本分类模型使用，与 Instances 二选一）
	Texts []string

	// ModelName 模型名称（可选，如果服务支持多模型）
	ModelName string

	// ModelVersion 模型版本（可选）
	ModelVersion string

	// Params 额外参数（可选）
	Params map[string]any
}

// MLPredictResponse 预测响应
type MLPredictResponse struct {
	// Predictions 数值预测结果（与请求实例一一对应）
	Predictions []float64

	// Classes 分类预测结果（文本分类模型返回，与 Texts 一一对应）
	Classes []string

	// ModelVersion 模型版本（如果服务返回）
	ModelVersion string
}
