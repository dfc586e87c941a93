package filter

import (
	"context"

	"github.com/rushteam/prodrec/core"
)

// BlacklistFilter 是黑名单过滤器，按商品名过滤。
type BlacklistFilter struct {
	// Names 是内存中的黑名单商品名
	Names []string

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string

	names map[string]struct{}
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单商品名列表
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。store 可以为 nil。
func NewBlacklistFilter(names []string, store BlacklistStore, key string) *BlacklistFilter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return &BlacklistFilter{
		Names: names,
		Store: store,
		Key:   key,
		names: set,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	if _, ok := f.names[item.ID]; ok {
		return true, nil
	}

	// 从 Store 检查；key 不存在视为空黑名单
	if f.Store != nil && f.Key != "" {
		blacklist, err := f.Store.GetBlacklist(ctx, f.Key)
		if err != nil {
			if core.IsStoreNotFound(err) {
				return false, nil
			}
			return false, err
		}
		for _, name := range blacklist {
			if item.ID == name {
				return true, nil
			}
		}
	}

	return false, nil
}
