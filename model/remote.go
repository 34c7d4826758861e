package model

import (
	"context"
	"fmt"

	"github.com/cinerec/cinerec/core"
)

// RemoteClassifier 把 core.MLService（KServe 协议的推理服务）适配成
// core.Classifier，用于情绪分类器外置部署的场景。
// 本地 JSON 工件与远程服务可互换，model.Store 不感知差异。
type RemoteClassifier struct {
	Service   core.MLService
	ModelName string
}

func (c *RemoteClassifier) Name() string { return "remote:" + c.ModelName }

// PredictLabel 发送单条文本推理请求，取第一个分类结果。
func (c *RemoteClassifier) PredictLabel(ctx context.Context, cleaned string) (string, error) {
	resp, err := c.Service.Predict(ctx, &core.MLPredictRequest{
		Texts:     []string{cleaned},
		ModelName: c.ModelName,
	})
	if err != nil {
		return "", fmt.Errorf("remote classifier: %w", err)
	}
	if len(resp.Classes) == 0 {
		return "", fmt.Errorf("remote classifier: empty response")
	}
	return resp.Classes[0], nil
}

// RemotePredictor 把 core.MLService 适配成 core.RatingPredictor，
// 用于协同过滤模型外置部署的场景（经 Options.Predictor 接入）。
// 特征向量约定为 [user_id, item_id]。
type RemotePredictor struct {
	Service   core.MLService
	ModelName string
}

func (p *RemotePredictor) Name() string { return "remote:" + p.ModelName }

// PredictRating 发送单条打分请求，取第一个数值结果。
func (p *RemotePredictor) PredictRating(ctx context.Context, userID, itemID int64) (float64, error) {
	resp, err := p.Service.Predict(ctx, &core.MLPredictRequest{
		Instances: [][]float64{{float64(userID), float64(itemID)}},
		ModelName: p.ModelName,
	})
	if err != nil {
		return 0, fmt.Errorf("remote predictor: %w", err)
	}
	if len(resp.Predictions) == 0 {
		return 0, fmt.Errorf("remote predictor: empty response")
	}
	return resp.Predictions[0], nil
}

var (
	_ core.Classifier      = (*RemoteClassifier)(nil)
	_ core.RatingPredictor = (*RemotePredictor)(nil)
)
