package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rushteam/prodrec/artifact"
	"github.com/rushteam/prodrec/catalog"
	"github.com/rushteam/prodrec/config"
	_ "github.com/rushteam/prodrec/config/builders"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/logging"
	"github.com/rushteam/prodrec/recommend"
	"github.com/rushteam/prodrec/store"
)

// app 按固定顺序组装：加载目录 → 打开存储 → 加载或构建产物 → Engine → Service。
type app struct {
	cfg       *config.Config
	catalog   *core.Catalog
	backend   core.Store
	artifacts *artifact.Store
	engine    *recommend.Engine
	service   *recommend.Service
}

func (a *app) Close() error {
	if a.backend == nil {
		return nil
	}
	return a.backend.Close()
}

func openArtifacts(ctx context.Context, cfg *config.Config) (*core.Catalog, core.Store, *artifact.Store, error) {
	cat, err := catalog.LoadCSV(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	backend, err := store.Open(ctx, cfg.Artifact.Store)
	if err != nil {
		return nil, nil, nil, err
	}
	as := artifact.NewStore(backend, cfg.BuildOptions(),
		artifact.WithKey(cfg.Artifact.Key),
		artifact.WithCompression(cfg.Artifact.Compress),
	)
	return cat, backend, as, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	cat, backend, as, err := openArtifacts(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, catalog: cat, backend: backend, artifacts: as}

	a.engine, err = recommend.NewEngine(ctx, cat, as)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	post, err := config.LoadPostNodes(cfg.Recommend.Pipeline, backend)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.service = recommend.NewService(a.engine,
		recommend.WithDefaultN(cfg.Recommend.DefaultN),
		recommend.WithPostNodes(post...),
	)
	l := logging.With("app")
	l.Info().
		Str("catalog", cfg.Catalog.Path).
		Str("store", backend.Name()).
		Int("post_nodes", len(post)).
		Msg("service ready")
	return a, nil
}

// describe 为致命的目录错误补充说明，忽略取消
func describe(err error) error {
	switch {
	case core.IsSchema(err):
		return fmt.Errorf("catalog schema: %w", err)
	case core.IsEmptyCatalog(err):
		return fmt.Errorf("catalog is empty: %w", err)
	case errors.Is(err, context.Canceled):
		return nil
	}
	return err
}
