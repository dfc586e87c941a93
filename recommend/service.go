package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/metrics"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/logging"
	"github.com/rushteam/prodrec/recall"
	"github.com/rushteam/prodrec/rerank"
)

// Service 是相似商品推荐服务。
//
// 每次请求组装一条 Pipeline：
//
//	recall.Content → post 节点（过滤、多样性等）→ rerank.TopNNode{N: n}
type Service struct {
	engine   *Engine
	post     []pipeline.Node
	defaultN int
	logger   zerolog.Logger
}

// ServiceOption 配置 Service
type ServiceOption func(*Service)

// WithPostNodes 设置召回之后的处理节点
func WithPostNodes(nodes ...pipeline.Node) ServiceOption {
	return func(s *Service) { s.post = append(s.post, nodes...) }
}

// WithDefaultN 设置 n < 1 时使用的默认数量
func WithDefaultN(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.defaultN = n
		}
	}
}

// NewService 创建推荐服务
func NewService(engine *Engine, opts ...ServiceOption) *Service {
	s := &Service{
		engine:   engine,
		defaultN: (&core.DefaultRecommendConfig{}).DefaultTopN(),
		logger:   logging.With("recommend"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Engine 返回底层 Engine
func (s *Service) Engine() *Engine { return s.engine }

// DefaultN 返回默认推荐数量
func (s *Service) DefaultN() int { return s.defaultN }

// Recommend 返回与 name 最相似的至多 n 个商品（不含自身）。
// 商品不存在时返回空结果和 nil error。
func (s *Service) Recommend(ctx context.Context, name string, n int) ([]core.Product, error) {
	st := s.engine.Current()
	items, err := s.run(ctx, st, "api", name, n)
	if err != nil {
		return nil, err
	}
	return productsOf(st, items), nil
}

// RecommendItems 与 Recommend 排序一致，额外返回分数与标签。
func (s *Service) RecommendItems(ctx context.Context, name string, n int) ([]*core.Item, error) {
	return s.run(ctx, s.engine.Current(), "items", name, n)
}

// Recommendation 是一次查询的完整结果，Generation 是应答所用的产物代号。
type Recommendation struct {
	Generation string
	Items      []*core.Item
	Products   []core.Product
}

// RecommendScene 与 RecommendItems 相同，scene 仅用于观测（cli / http）。
// 整次查询只读取一次当前状态，查询期间发生的替换不影响结果与 Generation。
func (s *Service) RecommendScene(ctx context.Context, scene, name string, n int) (*Recommendation, error) {
	st := s.engine.Current()
	items, err := s.run(ctx, st, scene, name, n)
	if err != nil {
		return nil, err
	}
	return &Recommendation{
		Generation: st.Generation(),
		Items:      items,
		Products:   productsOf(st, items),
	}, nil
}

func (s *Service) run(ctx context.Context, st *EngineState, scene, name string, n int) ([]*core.Item, error) {
	start := time.Now()
	if n < 1 {
		n = s.defaultN
	}

	row, ok := st.Resolve(name)
	if !ok {
		s.logger.Debug().Str("product", name).Msg("unknown product, empty recommendation")
		metrics.RecordRecommend(scene, "unknown_product", 0, time.Since(start))
		return []*core.Item{}, nil
	}

	rctx := &core.RecommendContext{
		Query:    name,
		QueryRow: row,
		N:        n,
		Scene:    scene,
	}
	items, err := s.pipelineFor(st, n).Run(ctx, rctx, nil)
	if err != nil {
		metrics.RecordRecommend(scene, "error", 0, time.Since(start))
		return nil, core.WrapDomainError(core.ModuleService, core.ErrorCodeInternalError,
			"recommend: pipeline", err)
	}
	if items == nil {
		items = []*core.Item{}
	}
	metrics.RecordRecommend(scene, "ok", len(items), time.Since(start))
	s.logger.Debug().
		Str("product", name).
		Int("n", n).
		Int("results", len(items)).
		Str("generation", st.Generation()).
		Msg("recommend")
	return items, nil
}

// pipelineFor 组装本次请求的 Pipeline。
// 没有 post 节点时只召回 n 个；有 post 节点时召回全部，避免过滤后数量不足。
func (s *Service) pipelineFor(st *EngineState, n int) *pipeline.Pipeline {
	topK := n
	if len(s.post) > 0 {
		topK = 0
	}
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Content{Index: st.Index, Catalog: st.Catalog, TopK: topK},
	}}
	return p.Append(s.post...).Append(&rerank.TopNNode{N: n})
}

func productsOf(st *EngineState, items []*core.Item) []core.Product {
	out := make([]core.Product, 0, len(items))
	for _, it := range items {
		if p, ok := st.Catalog.At(it.Row); ok {
			out = append(out, p)
		}
	}
	return out
}
