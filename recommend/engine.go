// Package recommend 提供基于内容的相似商品推荐服务。
//
// Engine 持有当前一代的 EngineState（目录 + 产物 + 索引），查询无锁读取；
// Rebuild 在旁路构建新一代并原子替换，进行中的查询继续使用旧一代。
package recommend

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/rushteam/prodrec/artifact"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/metrics"
	"github.com/rushteam/prodrec/pkg/logging"
	"github.com/rushteam/prodrec/vector"
)

// EngineState 是一代不可变的服务状态。
type EngineState struct {
	Catalog  *core.Catalog
	Artifact *artifact.Artifact
	Index    vector.Index

	// 拟合时商品名 -> 第一条匹配的行号
	rows map[string]int
}

// NewEngineState 由目录与产物组装服务状态。产物必须与目录一致。
func NewEngineState(catalog *core.Catalog, a *artifact.Artifact) (*EngineState, error) {
	if err := artifact.Validate(a, catalog, a.Options); err != nil {
		return nil, err
	}
	idx, err := a.Index()
	if err != nil {
		return nil, err
	}
	rows := make(map[string]int, len(a.Names))
	for i, name := range a.Names {
		if _, ok := rows[name]; !ok {
			rows[name] = i
		}
	}
	return &EngineState{Catalog: catalog, Artifact: a, Index: idx, rows: rows}, nil
}

// Resolve 返回商品名对应的行号（重名时取第一条）。
func (s *EngineState) Resolve(name string) (int, bool) {
	row, ok := s.rows[name]
	return row, ok
}

// Generation 返回产物代号
func (s *EngineState) Generation() string { return s.Artifact.Generation }

// Engine 管理 EngineState 的加载与替换。
type Engine struct {
	store  *artifact.Store
	logger zerolog.Logger

	state     atomic.Pointer[EngineState]
	rebuildMu sync.Mutex
}

// NewEngine 加载或构建产物并创建 Engine。
// 只有 SCHEMA / EMPTY_CATALOG 这类构建错误会返回，持久化问题在 artifact.Store 内部处理。
func NewEngine(ctx context.Context, catalog *core.Catalog, store *artifact.Store) (*Engine, error) {
	e := &Engine{store: store, logger: logging.With("engine")}
	a, outcome, err := store.LoadOrBuild(ctx, catalog)
	if err != nil {
		return nil, err
	}
	st, err := NewEngineState(catalog, a)
	if err != nil {
		return nil, err
	}
	e.swap(st)
	e.logger.Info().
		Str("generation", a.Generation).
		Str("outcome", string(outcome)).
		Int("products", catalog.Len()).
		Msg("engine ready")
	return e, nil
}

// NewEngineFromState 用已有状态创建 Engine（测试或嵌入使用），store 可以为 nil，此时不支持 Rebuild。
func NewEngineFromState(st *EngineState, store *artifact.Store) *Engine {
	e := &Engine{store: store, logger: logging.With("engine")}
	e.swap(st)
	return e
}

// Current 返回当前一代状态
func (e *Engine) Current() *EngineState {
	return e.state.Load()
}

// Rebuild 用 catalog 构建新一代产物、保存并原子替换。
// 保存失败时仍替换为新一代，同时返回 PERSISTENCE 错误；构建失败时保持旧一代不变。
func (e *Engine) Rebuild(ctx context.Context, catalog *core.Catalog) (*EngineState, error) {
	if e.store == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeNotSupported,
			"engine: rebuild requires an artifact store")
	}
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	a, saveErr := e.store.BuildAndSave(ctx, catalog)
	if a == nil {
		return nil, saveErr
	}
	st, err := NewEngineState(catalog, a)
	if err != nil {
		return nil, err
	}
	prev := e.swap(st)

	ev := e.logger.Info().Str("generation", a.Generation)
	if prev != nil {
		ev = ev.Str("previous", prev.Generation())
	}
	ev.Int("products", catalog.Len()).Msg("engine swapped")

	if saveErr != nil {
		e.logger.Error().Err(saveErr).Str("generation", a.Generation).Msg("rebuilt artifact not persisted")
	}
	return st, saveErr
}

func (e *Engine) swap(st *EngineState) *EngineState {
	prev := e.state.Swap(st)
	metrics.SetServing(st.Catalog.Len(), st.Artifact.Dim())
	return prev
}
