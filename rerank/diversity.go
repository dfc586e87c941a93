package rerank

import (
	"context"
	"fmt"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
)

// Diversity 是按属性去重的多样性 ReRank：同一属性值最多保留 MaxPerValue 个（保持原有顺序）。
// 属性来源优先级：
// - label[Key].Value
// - meta[Key]（召回节点写入的商品属性，如 brand / category）
type Diversity struct {
	Key         string // 默认 "brand"
	MaxPerValue int    // 默认 1
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.Key
	if key == "" {
		key = "brand"
	}
	limit := n.MaxPerValue
	if limit <= 0 {
		limit = 1
	}

	seen := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}

		value := ""
		if lbl, ok := it.Labels[key]; ok {
			value = lbl.Value
		}
		if value == "" && it.Meta != nil {
			if v, ok := it.Meta[key]; ok && v != nil {
				value = fmt.Sprint(v)
			}
		}

		if value == "" {
			out = append(out, it)
			continue
		}
		if seen[value] >= limit {
			continue
		}
		seen[value]++
		out = append(out, it)
	}

	return out, nil
}
