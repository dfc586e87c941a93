package rerank

import (
	"context"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，保留前 N 个商品。
// 推荐服务总是把它作为 Pipeline 的最后一个节点，保证返回数量不超过请求的 n。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Content{...},            // 相似度召回
//	        &filter.FilterNode{...},         // 过滤
//	        &rerank.Diversity{Key: "brand"}, // 品牌多样性
//	        &rerank.TopNNode{N: 3},          // 截取 Top 3
//	    },
//	}
type TopNNode struct {
	// N <= 0 时不截断；N > len(items) 时返回全部
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
