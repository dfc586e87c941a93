// Package artifact 负责构建、校验与持久化推荐产物。
//
// 产物是一次拟合的全部结果：编码器参数、可选的降维参数、
// 相似度矩阵（matrix 模式）或向量矩阵（on_demand 模式）以及拟合时的商品名。
// 产物构建后不可变。
package artifact

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/feature"
	"github.com/rushteam/prodrec/reduce"
	"github.com/rushteam/prodrec/vector"
)

// FormatVersion 是当前的持久化格式版本，格式不兼容时递增。
const FormatVersion uint16 = 1

// Options 是影响查询结果的构建参数，参与陈旧判断。
type Options struct {
	Columns          feature.Columns `json:"columns"`
	ReductionEnabled bool            `json:"reduction_enabled"`
	Rank             int             `json:"rank"`
	Mode             vector.Mode     `json:"mode"`

	// Workers 只影响构建速度，不持久化
	Workers int `json:"-"`
}

// DefaultOptions 返回默认构建参数：全部列、不降维、matrix 模式。
func DefaultOptions() Options {
	return Options{
		Columns: feature.DefaultColumns(),
		Rank:    (&core.DefaultRecommendConfig{}).DefaultReductionRank(),
		Mode:    vector.ModeMatrix,
	}
}

// Equivalent 判断两组参数是否产生相同的产物。未启用降维时忽略 Rank。
func (o Options) Equivalent(other Options) bool {
	if !slices.Equal(o.Columns.Numeric, other.Columns.Numeric) ||
		!slices.Equal(o.Columns.Categorical, other.Columns.Categorical) {
		return false
	}
	if o.ReductionEnabled != other.ReductionEnabled || o.Mode != other.Mode {
		return false
	}
	return !o.ReductionEnabled || o.Rank == other.Rank
}

// Artifact 是持久化的拟合结果。
type Artifact struct {
	FormatVersion      uint16
	Generation         string
	CreatedAt          time.Time
	Options            Options
	Encoder            *feature.EncoderState
	Reducer            *reduce.State  // 未启用降维时为 nil
	Similarity         *vector.Matrix // matrix 模式
	Vectors            *vector.Matrix // on_demand 模式
	Names              []string
	CatalogFingerprint string
}

// Build 在目录上执行完整的构建流程：
// 编码 → 可选降维 → matrix 模式计算相似度矩阵 / on_demand 模式保留向量矩阵。
func Build(ctx context.Context, catalog *core.Catalog, opts Options) (*Artifact, error) {
	if !vector.ValidMode(opts.Mode) {
		return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeNotSupported,
			fmt.Sprintf("artifact: unknown index mode %q", opts.Mode))
	}

	enc, vecs, err := feature.FitTransform(catalog, opts.Columns)
	if err != nil {
		return nil, err
	}

	a := &Artifact{
		FormatVersion:      FormatVersion,
		Generation:         uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		Options:            opts,
		Encoder:            enc,
		Names:              catalog.Names(),
		CatalogFingerprint: catalog.Fingerprint(),
	}

	if opts.ReductionEnabled {
		state, err := reduce.Fit(vecs, opts.Rank)
		if err != nil {
			return nil, err
		}
		if vecs, err = state.Transform(vecs); err != nil {
			return nil, err
		}
		a.Reducer = state
	}

	switch opts.Mode {
	case vector.ModeMatrix:
		idx, err := vector.NewMatrixIndex(ctx, vecs, opts.Workers)
		if err != nil {
			return nil, fmt.Errorf("artifact: similarity matrix: %w", err)
		}
		a.Similarity = idx.Matrix()
	case vector.ModeOnDemand:
		a.Vectors = vecs
	}
	return a, nil
}

// Index 由产物恢复相似度索引。
func (a *Artifact) Index() (vector.Index, error) {
	switch a.Options.Mode {
	case vector.ModeMatrix:
		if a.Similarity == nil {
			return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodePersistence,
				"artifact: matrix mode without similarity matrix")
		}
		return vector.MatrixIndexFrom(a.Similarity)
	case vector.ModeOnDemand:
		if a.Vectors == nil {
			return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodePersistence,
				"artifact: on_demand mode without vectors")
		}
		return vector.NewOnDemandIndex(a.Vectors), nil
	default:
		return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeNotSupported,
			fmt.Sprintf("artifact: unknown index mode %q", a.Options.Mode))
	}
}

// Dim 返回支撑索引的向量维度（降维后维度或编码维度）。
func (a *Artifact) Dim() int {
	if a.Reducer != nil {
		return a.Reducer.Rank
	}
	if a.Encoder != nil {
		return a.Encoder.Dim()
	}
	return 0
}

// checkIntegrity 检查产物自身是否完整：模式对应的矩阵必须存在且形状自洽。
// 不完整的产物视为损坏（PERSISTENCE），由 LoadOrBuild 重新构建。
func checkIntegrity(a *Artifact) error {
	corrupt := func(format string, args ...any) error {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodePersistence,
			"artifact: "+fmt.Sprintf(format, args...))
	}
	if a.Encoder == nil {
		return corrupt("missing encoder state")
	}
	n := len(a.Names)
	dim := a.Encoder.Dim()
	if r := a.Reducer; r != nil {
		switch {
		case r.Components == nil:
			return corrupt("reducer without components")
		case r.InputDim != dim:
			return corrupt("reducer input dim %d, encoder dim %d", r.InputDim, dim)
		case r.Components.Rows != r.Rank || r.Components.Cols != r.InputDim:
			return corrupt("reducer components %dx%d, want %dx%d",
				r.Components.Rows, r.Components.Cols, r.Rank, r.InputDim)
		}
		dim = r.Rank
	}
	switch a.Options.Mode {
	case vector.ModeMatrix:
		if a.Similarity == nil {
			return corrupt("matrix mode without similarity matrix")
		}
		if a.Similarity.Rows != n || a.Similarity.Cols != n {
			return corrupt("similarity matrix %dx%d, want %dx%d", a.Similarity.Rows, a.Similarity.Cols, n, n)
		}
	case vector.ModeOnDemand:
		if a.Vectors == nil {
			return corrupt("on_demand mode without vectors")
		}
		if a.Vectors.Rows != n || a.Vectors.Cols != dim {
			return corrupt("vectors %dx%d, want %dx%d", a.Vectors.Rows, a.Vectors.Cols, n, dim)
		}
	default:
		return corrupt("unknown index mode %q", a.Options.Mode)
	}
	return nil
}

// Validate 检查产物是否完整（否则 PERSISTENCE），
// 以及是否仍对应当前目录与构建参数（否则 STALE_ARTIFACT）。
func Validate(a *Artifact, catalog *core.Catalog, opts Options) error {
	if err := checkIntegrity(a); err != nil {
		return err
	}
	stale := func(reason string) error {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeStaleArtifact, "artifact: "+reason)
	}
	if len(a.Names) != catalog.Len() {
		return stale(fmt.Sprintf("row count %d, catalog has %d", len(a.Names), catalog.Len()))
	}
	if !slices.Equal(a.Names, catalog.Names()) {
		return stale("product names differ from catalog")
	}
	if a.CatalogFingerprint != catalog.Fingerprint() {
		return stale("catalog content changed")
	}
	if !a.Options.Equivalent(opts) {
		return stale("build options changed")
	}
	return nil
}
