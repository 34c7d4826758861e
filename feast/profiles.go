package feast

import (
	"context"
	"strings"

	"github.com/cinerec/cinerec/pkg/conv"
)

// DefaultFeatureView 是类型偏好画像的默认特征视图。
const DefaultFeatureView = "user_genre_affinity"

// Profiles 按用户读取类型偏好画像，产出推荐上下文 Profile 需要的
// "genre:<类型名>" → 权重映射。
//
// 特征命名约定：视图 {FeatureView} 下每个类型一个特征，
// 名为 affinity_<小写类型名>（非字母数字折为下划线），
// 例如 Comedy → user_genre_affinity:affinity_comedy，
// Sci-Fi → user_genre_affinity:affinity_sci_fi。
type Profiles struct {
	// Client Feature Store 客户端
	Client Client

	// FeatureView 特征视图名，默认 DefaultFeatureView
	FeatureView string

	// EntityKey 实体键名，默认 "user_id"
	EntityKey string

	// Genres 画像覆盖的类型名集合（片库的类型全集）
	Genres []string
}

// GenreAffinity 读取单个用户的画像。失败或画像为空时返回 nil，
// 调用方按无画像处理。
func (p *Profiles) GenreAffinity(ctx context.Context, userID string) map[string]float64 {
	if p.Client == nil || len(p.Genres) == 0 || userID == "" {
		return nil
	}

	view := p.FeatureView
	if view == "" {
		view = DefaultFeatureView
	}
	entityKey := p.EntityKey
	if entityKey == "" {
		entityKey = "user_id"
	}

	features := make([]string, 0, len(p.Genres))
	refToGenre := make(map[string]string, len(p.Genres))
	for _, g := range p.Genres {
		ref := view + ":" + featureName(g)
		features = append(features, ref)
		refToGenre[ref] = g
	}

	resp, err := p.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   features,
		EntityRows: []map[string]interface{}{{entityKey: userID}},
	})
	if err != nil || len(resp.FeatureVectors) == 0 {
		return nil
	}

	profile := make(map[string]float64)
	for ref, raw := range resp.FeatureVectors[0].Values {
		genre, ok := refToGenre[ref]
		if !ok {
			continue
		}
		if w, ok := conv.ToFloat64(raw); ok && w > 0 {
			profile["genre:"+genre] = w
		}
	}
	if len(profile) == 0 {
		return nil
	}
	return profile
}

// featureName 把类型名折成特征名后缀：affinity_<小写，非字母数字→下划线>。
func featureName(genre string) string {
	var b strings.Builder
	b.WriteString("affinity_")
	for _, r := range strings.ToLower(genre) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
