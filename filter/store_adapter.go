package filter

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/prodrec/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 黑名单以 JSON 字符串数组存储，例如 ["Lipstick X", "Serum Y"]。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode blacklist %s: %w", key, err)
	}
	return names, nil
}

// SetBlacklist 写入黑名单。
func (a *StoreAdapter) SetBlacklist(ctx context.Context, key string, names []string) error {
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}
