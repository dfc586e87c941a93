package core

import "github.com/rushteam/prodrec/pkg/utils"

// RecommendContext 承载一次查询的上下文，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// Query 是查询的商品名
	Query string

	// QueryRow 是 Query 解析后的行号（第一条匹配）
	QueryRow int

	// N 是期望返回的数量
	N int

	// Scene 是调用方场景（cli / http / ...），仅用于观测
	Scene string

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如过滤表达式的变量
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
