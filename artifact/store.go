package artifact

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/metrics"
	"github.com/rushteam/prodrec/pkg/logging"
)

// DefaultKey 是产物在存储中的默认 key
const DefaultKey = "prodrec/artifact"

// Outcome 描述 LoadOrBuild 的结果来源
type Outcome string

const (
	OutcomeLoaded  Outcome = "loaded"  // 命中已持久化的产物
	OutcomeAbsent  Outcome = "absent"  // 不存在，已重新构建
	OutcomeStale   Outcome = "stale"   // 与目录或参数不一致，已重新构建
	OutcomeCorrupt Outcome = "corrupt" // 损坏或版本不兼容，已重新构建
	OutcomeForced  Outcome = "forced"  // 显式重建
)

// Store 在 core.Store 之上提供产物的加载、保存与“加载或构建”。
type Store struct {
	backend  core.Store
	key      string
	compress bool
	opts     Options
	logger   zerolog.Logger
}

// StoreOption 配置 Store
type StoreOption func(*Store)

// WithKey 设置存储 key
func WithKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithCompression 启用 zstd 压缩
func WithCompression(enabled bool) StoreOption {
	return func(s *Store) { s.compress = enabled }
}

// WithLogger 设置 logger
func WithLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore 创建产物存储，opts 是当前期望的构建参数。
func NewStore(backend core.Store, opts Options, options ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		opts:    opts,
		logger:  logging.With("artifact"),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Options 返回构建参数
func (s *Store) Options() Options { return s.opts }

// Backend 返回底层存储名称
func (s *Store) Backend() string { return s.backend.Name() }

// Load 读取并解码产物：不存在返回 NOT_FOUND，损坏或版本不兼容返回 PERSISTENCE。
func (s *Store) Load(ctx context.Context) (*Artifact, error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeNotFound,
				"artifact: no artifact stored at "+s.key, err)
		}
		metrics.RecordPersistError(s.backend.Name(), "get")
		return nil, core.WrapDomainError(core.ModuleArtifact, core.ErrorCodePersistence,
			"artifact: read "+s.key, err)
	}
	a, err := Decode(data)
	if err != nil {
		return nil, err
	}
	metrics.ArtifactBytes.Set(float64(len(data)))
	return a, nil
}

// Save 编码并原子写入产物。
func (s *Store) Save(ctx context.Context, a *Artifact) error {
	data, err := Encode(a, s.compress)
	if err != nil {
		return err
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		metrics.RecordPersistError(s.backend.Name(), "set")
		return core.WrapDomainError(core.ModuleArtifact, core.ErrorCodePersistence,
			"artifact: write "+s.key, err)
	}
	metrics.ArtifactBytes.Set(float64(len(data)))
	return nil
}

// BuildAndSave 构建新产物并保存。
// 保存失败时仍返回构建好的产物，同时返回 PERSISTENCE 错误，由调用方决定是否继续使用。
func (s *Store) BuildAndSave(ctx context.Context, catalog *core.Catalog) (*Artifact, error) {
	return s.buildAndSave(ctx, catalog, OutcomeForced)
}

func (s *Store) buildAndSave(ctx context.Context, catalog *core.Catalog, reason Outcome) (*Artifact, error) {
	start := time.Now()
	a, err := Build(ctx, catalog, s.opts)
	metrics.RecordArtifactBuild(string(reason), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("generation", a.Generation).
		Str("reason", string(reason)).
		Int("products", len(a.Names)).
		Int("dim", a.Dim()).
		Str("mode", string(a.Options.Mode)).
		Dur("took", time.Since(start)).
		Msg("artifact built")

	if err := s.Save(ctx, a); err != nil {
		return a, err
	}
	return a, nil
}

// LoadOrBuild 优先加载已有产物；不存在、损坏或陈旧时重新构建并保存。
// 重建后保存失败只记录日志，仍返回新产物。
// 只有构建本身失败（SCHEMA / EMPTY_CATALOG 等）才返回错误。
func (s *Store) LoadOrBuild(ctx context.Context, catalog *core.Catalog) (*Artifact, Outcome, error) {
	reason := OutcomeAbsent
	a, err := s.Load(ctx)
	switch {
	case err == nil:
		if verr := Validate(a, catalog, s.opts); verr != nil {
			reason = OutcomeStale
			if core.IsPersistence(verr) {
				reason = OutcomeCorrupt
			}
			s.logger.Warn().Err(verr).Str("generation", a.Generation).Str("reason", string(reason)).Msg("stored artifact unusable, rebuilding")
		} else {
			metrics.RecordArtifactLoad("hit")
			s.logger.Info().Str("generation", a.Generation).Str("backend", s.Backend()).Msg("artifact loaded")
			return a, OutcomeLoaded, nil
		}
	case core.IsNotFound(err):
		s.logger.Info().Str("key", s.key).Msg("no stored artifact, building")
	default:
		s.logger.Warn().Err(err).Str("key", s.key).Msg("stored artifact unreadable, rebuilding")
		reason = OutcomeCorrupt
	}
	metrics.RecordArtifactLoad(string(reason))

	a, err = s.buildAndSave(ctx, catalog, reason)
	if a == nil {
		return nil, reason, err
	}
	if err != nil {
		s.logger.Error().Err(err).Str("generation", a.Generation).Msg("artifact save failed, serving unsaved artifact")
	}
	return a, reason, nil
}
