// Package service 提供 core.MLService 的 HTTP 实现，
// 用于把情绪分类或评分打分外置到独立推理服务。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cinerec/cinerec/core"
)

// AuthConfig 认证配置。
type AuthConfig struct {
	Type     string // "basic" / "bearer" / "api_key"
	Username string
	Password string
	Token    string
	APIKey   string
}

// HTTPClient 是 KServe V1 风格推理服务的客户端：
//
//	Predict: POST /v1/models/{model_name}:predict
//	  请求：{"instances": [...]}（数值特征或原始文本均放 instances）
//	  响应：{"predictions": [...]}，文本分类时 predictions 为类别字符串
//	Health:  GET /v1/models/{model_name}
//
// 适用场景：情绪分类器迁到 KServe/自建推理服务时替换进程内 JSON 工件，
// 经 model.RemoteClassifier 适配为 core.Classifier。
type HTTPClient struct {
	// Endpoint 服务根地址，如 "http://localhost:8000"
	Endpoint string
	// ModelName 模型名称
	ModelName string
	// ModelVersion 模型版本（可选）
	ModelVersion string
	// Timeout 请求超时，默认 30s
	Timeout time.Duration
	// Auth 认证配置（可选）
	Auth *AuthConfig

	httpClient *http.Client
}

// Option 配置 HTTPClient。
type Option func(*HTTPClient)

// WithTimeout 设置超时。
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.Timeout = timeout
		if c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithAuth 设置认证。
func WithAuth(auth *AuthConfig) Option {
	return func(c *HTTPClient) { c.Auth = auth }
}

// WithHTTPClient 设置自定义 HTTP 客户端。
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = client }
}

// NewHTTPClient 创建推理客户端。endpoint 为根地址，modelName 为模型名。
func NewHTTPClient(endpoint, modelName string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		Endpoint:  endpoint,
		ModelName: modelName,
		Timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}

// Predict 实现 core.MLService。
func (c *HTTPClient) Predict(ctx context.Context, req *core.MLPredictRequest) (*core.MLPredictResponse, error) {
	if len(req.Instances) == 0 && len(req.Texts) == 0 {
		return nil, fmt.Errorf("instances or texts are required")
	}

	modelName := req.ModelName
	if modelName == "" {
		modelName = c.ModelName
	}
	url := fmt.Sprintf("%s/v1/models/%s:predict", c.Endpoint, modelName)

	var body map[string]interface{}
	if len(req.Texts) > 0 {
		body = map[string]interface{}{"instances": req.Texts}
	} else {
		body = map[string]interface{}{"instances": req.Instances}
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ml service marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("ml service create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.addAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable,
			fmt.Sprintf("ml service request failed: %v", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ml service read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable,
			fmt.Sprintf("ml service error: status=%d, body=%s", resp.StatusCode, string(bodyBytes)))
	}

	return c.parsePredictions(bodyBytes, req)
}

// parsePredictions 解析 predictions：数值回归或类别字符串，自动区分。
func (c *HTTPClient) parsePredictions(body []byte, req *core.MLPredictRequest) (*core.MLPredictResponse, error) {
	var out struct {
		Predictions []interface{} `json:"predictions"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("ml service parse response: %w", err)
	}

	resp := &core.MLPredictResponse{ModelVersion: c.ModelVersion}
	for _, v := range out.Predictions {
		switch val := v.(type) {
		case string:
			resp.Classes = append(resp.Classes, val)
		case float64:
			resp.Predictions = append(resp.Predictions, val)
		case []interface{}:
			// 多输出取第一个标量
			if len(val) > 0 {
				if f, ok := val[0].(float64); ok {
					resp.Predictions = append(resp.Predictions, f)
				}
			}
		}
	}

	// 文本请求却没有类别结果视为协议不匹配
	if len(req.Texts) > 0 && len(resp.Classes) == 0 && len(resp.Predictions) == 0 {
		return nil, fmt.Errorf("ml service: no predictions for %d texts", len(req.Texts))
	}
	return resp, nil
}

// Health 实现 core.MLService：GET /v1/models/{model_name}。
func (c *HTTPClient) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1/models/%s", c.Endpoint, c.ModelName)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("ml service health create request: %w", err)
	}
	c.addAuth(httpReq)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ml service health request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ml service health failed: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

// Close 实现 core.MLService。
func (c *HTTPClient) Close(ctx context.Context) error {
	return nil
}

func (c *HTTPClient) addAuth(req *http.Request) {
	if c.Auth == nil {
		return
	}
	switch c.Auth.Type {
	case "basic":
		req.SetBasicAuth(c.Auth.Username, c.Auth.Password)
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.Auth.Token)
	case "api_key":
		req.Header.Set("X-API-Key", c.Auth.APIKey)
	}
}

var _ core.MLService = (*HTTPClient)(nil)
