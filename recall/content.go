package recall

import (
	"context"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/utils"
	"github.com/rushteam/prodrec/vector"
)

// Content 是基于内容的召回源（Content-Based Recommendation）。
//
// 核心思想："与查询商品属性相似的商品，就是值得推荐的商品"
//
// 查询商品由 rctx.QueryRow 指定；结果按相似度降序、相同分数按行号升序，
// 永远不包含查询商品本身。
// Content 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Content struct {
	Index   vector.Index
	Catalog *core.Catalog

	// TopK 返回 TopK 个商品，<= 0 表示返回全部其他商品
	TopK int
}

var (
	_ Source        = (*Content)(nil)
	_ pipeline.Node = (*Content)(nil)
)

func (r *Content) Name() string        { return "recall.content" }
func (r *Content) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Content) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Content) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Index == nil || r.Catalog == nil || rctx == nil {
		return nil, nil
	}

	hits := r.Index.TopSimilar(rctx.QueryRow, r.TopK, true)
	out := make([]*core.Item, 0, len(hits))
	for _, h := range hits {
		p, ok := r.Catalog.At(h.Row)
		if !ok {
			continue
		}
		it := core.NewItem(p.Name, h.Row)
		it.Score = h.Score
		it.Meta = p.Attributes()
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		it.PutLabel("recall_metric", utils.Label{Value: "cosine", Source: "recall"})
		it.PutLabel("recall_mode", utils.Label{Value: string(r.Index.Mode()), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
