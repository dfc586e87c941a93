package recall

import (
	"context"

	"github.com/rushteam/prodrec/core"
)

// Source 表示一个召回源。
// 召回源根据 RecommendContext 中的查询商品产出候选 Item。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
