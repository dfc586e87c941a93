// Package prodrec 是基于内容的商品推荐引擎。
//
// 设计要点：
// - Fit once, serve many: 编码器、可选的截断 SVD 与相似度矩阵一次拟合，持久化为带版本的产物
// - Pipeline-first: 每次查询通过 Node 串联（Recall → Filter → ReRank）
// - Labels-first: labels 全链路透传，支持 explain / 观测
package prodrec

import (
	"context"

	"github.com/rushteam/prodrec/artifact"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/logging"
	"github.com/rushteam/prodrec/recommend"
	"github.com/rushteam/prodrec/store"
)

// 轻量 facade：便于直接 import "prodrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind
type Product = core.Product
type Catalog = core.Catalog
type Options = artifact.Options
type Service = recommend.Service

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// DefaultOptions 返回默认构建参数
func DefaultOptions() Options { return artifact.DefaultOptions() }

// NewInMemory 在内存中构建产物并返回推荐服务，不做持久化，适合嵌入与测试。
func NewInMemory(ctx context.Context, products []Product, opts Options, svcOpts ...recommend.ServiceOption) (*Service, error) {
	as := artifact.NewStore(store.NewMemoryStore(), opts, artifact.WithLogger(logging.With("artifact")))
	engine, err := recommend.NewEngine(ctx, core.NewCatalog(products), as)
	if err != nil {
		return nil, err
	}
	return recommend.NewService(engine, svcOpts...), nil
}
