package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cinerec/cinerec/pkg/text"
)

// NBClassifier 是多项式朴素贝叶斯文本分类器：词袋 + 对数几率查表。
// 工件由离线训练产出（类别先验 + 每类别的词对数概率），在线只做推理。
//
// 输入必须是 text.Clean 归一后的文本；输出是固定闭集中的情绪标签。
type NBClassifier struct {
	Classes       []string
	ClassLogPrior []float64
	// TokenLogProb[token][k] 是 token 在第 k 个类别下的对数概率
	TokenLogProb map[string][]float64
	// UnknownLogProb[k] 是未登录词在第 k 个类别下的平滑对数概率
	UnknownLogProb []float64
}

// LoadNBClassifier 从 JSON 工件加载分类器。
func LoadNBClassifier(path string) (*NBClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open emotion classifier: %w", err)
	}
	var m NBClassifier
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse emotion classifier: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *NBClassifier) validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("emotion classifier: no classes")
	}
	if len(m.ClassLogPrior) != len(m.Classes) {
		return fmt.Errorf("emotion classifier: %d priors for %d classes", len(m.ClassLogPrior), len(m.Classes))
	}
	for token, probs := range m.TokenLogProb {
		if len(probs) != len(m.Classes) {
			return fmt.Errorf("emotion classifier: token %q has %d probs for %d classes", token, len(probs), len(m.Classes))
		}
	}
	if m.UnknownLogProb != nil && len(m.UnknownLogProb) != len(m.Classes) {
		return fmt.Errorf("emotion classifier: %d unknown probs for %d classes", len(m.UnknownLogProb), len(m.Classes))
	}
	return nil
}

func (m *NBClassifier) Name() string { return "naive_bayes" }

// PredictLabel 实现 core.Classifier：对每个类别累加对数几率，取最大者。
// 并列时取类别表中靠前的（确定性输出）。
func (m *NBClassifier) PredictLabel(_ context.Context, cleaned string) (string, error) {
	scores := make([]float64, len(m.Classes))
	copy(scores, m.ClassLogPrior)

	for _, token := range text.Tokens(cleaned) {
		probs, ok := m.TokenLogProb[token]
		if !ok {
			probs = m.UnknownLogProb
		}
		if probs == nil {
			continue
		}
		for k := range scores {
			scores[k] += probs[k]
		}
	}

	best := 0
	for k := 1; k < len(scores); k++ {
		if scores[k] > scores[best] {
			best = k
		}
	}
	return m.Classes[best], nil
}

// SaveNBClassifier 写出 JSON 工件（离线工具与测试使用）。
func SaveNBClassifier(path string, m *NBClassifier) error {
	if err := m.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
