package filter

import (
	"context"
	"encoding/json"

	"github.com/cinerec/cinerec/core"
)

// Seen 是已看过滤器：剔除用户近期已经交互过（看过/评过分）的影片。
// 交互历史从 Store 读取，key 形如 {KeyPrefix}:{UserID}，值为 JSON id 数组。
// Store 不可用或 key 缺失时放行所有条目——历史是增强信息，不是硬依赖。
type Seen struct {
	Store core.Store

	// KeyPrefix 默认 "user:seen"
	KeyPrefix string
}

func (f *Seen) Name() string { return "filter.seen" }

func (f *Seen) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Store == nil || rctx == nil || rctx.UserID == "" {
		return false, nil
	}

	prefix := f.KeyPrefix
	if prefix == "" {
		prefix = "user:seen"
	}

	data, err := f.Store.Get(ctx, prefix+":"+rctx.UserID)
	if err != nil {
		return false, nil
	}
	var seen []int64
	if json.Unmarshal(data, &seen) != nil {
		return false, nil
	}
	for _, id := range seen {
		if id == item.ID {
			return true, nil
		}
	}
	return false, nil
}

// MarkSeen 把影片追加进用户的已看集合（评分/点看行为的写入口）。
func MarkSeen(ctx context.Context, st core.Store, keyPrefix, userID string, itemID int64) error {
	if keyPrefix == "" {
		keyPrefix = "user:seen"
	}
	key := keyPrefix + ":" + userID

	var seen []int64
	if data, err := st.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &seen)
	}
	for _, id := range seen {
		if id == itemID {
			return nil
		}
	}
	seen = append(seen, itemID)
	data, err := json.Marshal(seen)
	if err != nil {
		return err
	}
	return st.Set(ctx, key, data)
}
