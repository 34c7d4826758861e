// Package feast 对接 Feast Feature Store，为推荐请求补充用户画像特征。
//
// 当前唯一的消费方是情绪召回的类型偏好加权：在线读取用户对各影片类型的
// 偏好权重，写入请求上下文的 Profile。画像缺失不影响请求，只是退化为
// 无偏好的均匀抽样。
package feast

import (
	"context"
	"time"
)

// Client 是 Feature Store 客户端的领域接口，基础设施实现见 GrpcClient。
type Client interface {
	// GetOnlineFeatures 获取在线特征（实时请求路径）
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表，例如 ["user_genre_affinity:affinity_comedy"]
	Features []string

	// EntityRows 实体行，例如 [{"user_id": "1001"}]
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，缺省用客户端默认项目）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应。
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，与请求的实体行一一对应
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体的特征值集合。
type FeatureVector struct {
	// Values key 为特征名称
	Values map[string]interface{}

	// EntityRow 对应的实体行
	EntityRow map[string]interface{}
}

// ClientOption 客户端配置选项。
type ClientOption func(*ClientConfig)

// ClientConfig 客户端配置。
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
	Auth     *AuthConfig
}

// AuthConfig 认证配置，Type 为 "static" 时走静态 Token。
type AuthConfig struct {
	Type  string
	Token string
}

// WithTimeout 设置超时时间。
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) { c.Timeout = timeout }
}

// WithAuth 设置认证信息。
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) { c.Auth = auth }
}
