package vector

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/prodrec/core"
)

// Mode 是相似度索引的工作模式。
type Mode string

const (
	// ModeMatrix 预先计算并保存完整的 N x N 相似度矩阵，查询时按行查表。
	// 适合目录较小、查询量大的场景。
	ModeMatrix Mode = "matrix"

	// ModeOnDemand 只保存向量矩阵，查询时计算查询行与所有行的相似度。
	// 适合向量矩阵（例如降维后的矩阵）较小、不想持久化 N x N 矩阵的场景。
	ModeOnDemand Mode = "on_demand"
)

// ValidMode 判断模式是否合法
func ValidMode(m Mode) bool {
	return m == ModeMatrix || m == ModeOnDemand
}

// Hit 是一条相似度查询结果
type Hit struct {
	Row   int
	Score float64
}

// Index 是相似度索引。两种实现（MatrixIndex / OnDemandIndex）对同一份向量返回完全一致的结果。
type Index interface {
	// Len 返回行数
	Len() int

	// Similarity 返回两行之间的余弦相似度，行号越界返回 0
	Similarity(a, b int) float64

	// TopSimilar 返回与 row 最相似的至多 n 行（n <= 0 表示全部）。
	// 按分数降序，分数相同按行号升序；excludeSelf 时排除 row 本身。
	TopSimilar(row, n int, excludeSelf bool) []Hit

	// Mode 返回索引模式
	Mode() Mode
}

// MatrixIndex 基于预计算的相似度矩阵。
type MatrixIndex struct {
	sim *Matrix
}

// NewMatrixIndex 由向量矩阵计算完整的相似度矩阵。
// 按行并发计算上三角并镜像到下三角，保证 sim[i][j] == sim[j][i]。
// workers <= 0 表示不限制并发。
func NewMatrixIndex(ctx context.Context, vectors *Matrix, workers int) (*MatrixIndex, error) {
	n := vectors.Rows
	norms := rowNorms(vectors)
	sim := NewMatrix(n, n)

	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// 每个 goroutine 只写 (i, j>=i) 与 (j>i, i)，不同 i 之间没有重叠
			a := vectors.Row(i)
			sim.Set(i, i, selfSimilarity(norms[i]))
			for j := i + 1; j < n; j++ {
				s := cosineWithNorms(a, vectors.Row(j), norms[i], norms[j])
				sim.Set(i, j, s)
				sim.Set(j, i, s)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &MatrixIndex{sim: sim}, nil
}

// MatrixIndexFrom 由已持久化的相似度矩阵恢复索引，矩阵必须是方阵。
func MatrixIndexFrom(sim *Matrix) (*MatrixIndex, error) {
	if sim == nil || sim.Rows != sim.Cols {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			"vector: similarity matrix must be square")
	}
	return &MatrixIndex{sim: sim}, nil
}

func (x *MatrixIndex) Len() int   { return x.sim.Rows }
func (x *MatrixIndex) Mode() Mode { return ModeMatrix }

// Matrix 返回底层相似度矩阵（只读）。
func (x *MatrixIndex) Matrix() *Matrix { return x.sim }

func (x *MatrixIndex) Similarity(a, b int) float64 {
	if !inRange(a, x.Len()) || !inRange(b, x.Len()) {
		return 0
	}
	return x.sim.At(a, b)
}

func (x *MatrixIndex) TopSimilar(row, n int, excludeSelf bool) []Hit {
	if !inRange(row, x.Len()) {
		return nil
	}
	return rank(x.sim.Row(row), row, n, excludeSelf)
}

// OnDemandIndex 只保存向量矩阵与行范数，查询时实时计算。
type OnDemandIndex struct {
	vectors *Matrix
	norms   []float64
}

// NewOnDemandIndex 创建按需计算的索引。
func NewOnDemandIndex(vectors *Matrix) *OnDemandIndex {
	return &OnDemandIndex{
		vectors: vectors,
		norms:   rowNorms(vectors),
	}
}

func (x *OnDemandIndex) Len() int   { return x.vectors.Rows }
func (x *OnDemandIndex) Mode() Mode { return ModeOnDemand }

// Vectors 返回底层向量矩阵（只读）。
func (x *OnDemandIndex) Vectors() *Matrix { return x.vectors }

func (x *OnDemandIndex) Similarity(a, b int) float64 {
	if !inRange(a, x.Len()) || !inRange(b, x.Len()) {
		return 0
	}
	if a == b {
		return selfSimilarity(x.norms[a])
	}
	// 与 MatrixIndex 保持相同的参数顺序（小行号在前），保证结果按位一致
	if a > b {
		a, b = b, a
	}
	return cosineWithNorms(x.vectors.Row(a), x.vectors.Row(b), x.norms[a], x.norms[b])
}

func (x *OnDemandIndex) TopSimilar(row, n int, excludeSelf bool) []Hit {
	if !inRange(row, x.Len()) {
		return nil
	}
	scores := make([]float64, x.Len())
	for j := range scores {
		scores[j] = x.Similarity(row, j)
	}
	return rank(scores, row, n, excludeSelf)
}

// NewIndex 按模式由向量矩阵构建索引。
func NewIndex(ctx context.Context, mode Mode, vectors *Matrix, workers int) (Index, error) {
	switch mode {
	case ModeMatrix:
		return NewMatrixIndex(ctx, vectors, workers)
	case ModeOnDemand:
		return NewOnDemandIndex(vectors), nil
	default:
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeNotSupported,
			fmt.Sprintf("vector: unknown index mode %q", mode))
	}
}

// rank 对一行分数排序：分数降序，相同分数按行号升序。
func rank(scores []float64, self, n int, excludeSelf bool) []Hit {
	hits := make([]Hit, 0, len(scores))
	for j, s := range scores {
		if excludeSelf && j == self {
			continue
		}
		hits = append(hits, Hit{Row: j, Score: s})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Row < hits[j].Row
	})
	if n > 0 && len(hits) > n {
		hits = hits[:n]
	}
	return hits
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}
