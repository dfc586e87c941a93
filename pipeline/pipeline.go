package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/prodrec/core"
)

// Pipeline 把一次推荐拆成可组合的 Node 链：召回 → 过滤 → 重排 → 截断。
// Pipeline 本身无状态，可以被多个请求并发复用。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// Append 返回在末尾追加节点后的新 Pipeline，不修改 p。
func (p *Pipeline) Append(nodes ...Node) *Pipeline {
	out := &Pipeline{Nodes: make([]Node, 0, len(p.Nodes)+len(nodes))}
	out.Nodes = append(out.Nodes, p.Nodes...)
	out.Nodes = append(out.Nodes, nodes...)
	return out
}
