package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// SVDModel 是 Funk-SVD 形态的协同过滤模型：离线训练产出的偏置与隐向量，
// 在线只做查表 + 点积。
//
// 预测公式：r̂(u,i) = GlobalMean + UserBias[u] + ItemBias[i] + P[u]·Q[i]
//
// 未知用户/未知影片的对应项取零值，预测退化为全局均值附近的基线，
// 这是优雅降级而不是错误（哈希映射出的用户桶命中与否同理）。
type SVDModel struct {
	GlobalMean  float64
	UserBias    map[int64]float64
	ItemBias    map[int64]float64
	UserFactors map[int64][]float64
	ItemFactors map[int64][]float64
}

// svdArtifact 是 JSON 工件的载体；map key 统一用字符串，加载时转回 int64。
type svdArtifact struct {
	GlobalMean  float64              `json:"global_mean"`
	UserBias    map[string]float64   `json:"user_bias"`
	ItemBias    map[string]float64   `json:"item_bias"`
	UserFactors map[string][]float64 `json:"user_factors"`
	ItemFactors map[string][]float64 `json:"item_factors"`
}

// LoadSVDModel 从 JSON 工件加载模型。
func LoadSVDModel(path string) (*SVDModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open collaborative model: %w", err)
	}
	var raw svdArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse collaborative model: %w", err)
	}

	m := &SVDModel{
		GlobalMean:  raw.GlobalMean,
		UserBias:    int64Keys(raw.UserBias),
		ItemBias:    int64Keys(raw.ItemBias),
		UserFactors: int64Keys(raw.UserFactors),
		ItemFactors: int64Keys(raw.ItemFactors),
	}
	return m, nil
}

func int64Keys[V any](in map[string]V) map[int64]V {
	out := make(map[int64]V, len(in))
	for k, v := range in {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		out[id] = v
	}
	return out
}

func (m *SVDModel) Name() string { return "svd" }

// PredictRating 实现 core.RatingPredictor。纯查表计算，不会失败。
func (m *SVDModel) PredictRating(_ context.Context, userID, itemID int64) (float64, error) {
	score := m.GlobalMean + m.UserBias[userID] + m.ItemBias[itemID]
	pu := m.UserFactors[userID]
	qi := m.ItemFactors[itemID]
	n := len(pu)
	if len(qi) < n {
		n = len(qi)
	}
	for k := 0; k < n; k++ {
		score += pu[k] * qi[k]
	}
	return score, nil
}
