// Package builders 注册内置的 pipeline 节点，供配置驱动使用。
package builders

import (
	"fmt"

	"github.com/rushteam/prodrec/config"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/filter"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/conv"
	"github.com/rushteam/prodrec/rerank"
)

func init() {
	config.Register("filter.expr", BuildExprFilterNode)
	config.Register("filter.blacklist", BuildBlacklistFilterNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildExprFilterNode 配置：expr（CEL 表达式，为 true 的商品保留）
func BuildExprFilterNode(cfg map[string]any) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr not found")
	}
	f, err := filter.NewExprFilter(expr)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

// BuildBlacklistFilterNode 配置：names（商品名列表）、key（存储中的黑名单 key，可选）
func BuildBlacklistFilterNode(cfg map[string]any) (pipeline.Node, error) {
	names := conv.SliceAnyToString(cfg["names"])
	key := conv.ConfigGet(cfg, "key", "")

	var bs filter.BlacklistStore
	if key != "" {
		s, ok := cfg[config.StoreConfigKey].(core.Store)
		if !ok {
			return nil, fmt.Errorf("blacklist key %q requires a store", key)
		}
		bs = filter.NewStoreAdapter(s)
	}
	if len(names) == 0 && bs == nil {
		return nil, fmt.Errorf("names or key required")
	}
	return &filter.FilterNode{
		Filters: []filter.Filter{filter.NewBlacklistFilter(names, bs, key)},
	}, nil
}

// BuildDiversityNode 配置：key（默认 brand）、max_per_value（默认 1）
func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{
		Key:         conv.ConfigGet(cfg, "key", "brand"),
		MaxPerValue: int(conv.ConfigGetInt64(cfg, "max_per_value", 1)),
	}, nil
}

// BuildTopNNode 配置：n
func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("n must be >= 0, got %d", n)
	}
	return &rerank.TopNNode{N: int(n)}, nil
}
