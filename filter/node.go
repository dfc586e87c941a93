package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/logging"
	"github.com/rushteam/prodrec/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该商品就会被过滤掉；过滤器出错时保留该商品。
type FilterNode struct {
	Filters []Filter

	// Logger 为空时使用全局 logger
	Logger *zerolog.Logger
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filterReason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				n.logger().Debug().Err(err).Str("filter", f.Name()).Str("item", item.ID).Msg("filter error, item kept")
				continue
			}
			if ok {
				filterReason = f.Name()
				break
			}
		}

		if filterReason != "" {
			// 记录过滤原因，用于调试/观测
			item.PutLabel("filtered", utils.Label{Value: "true", Source: filterReason})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (n *FilterNode) logger() *zerolog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	l := logging.With("filter")
	return &l
}
