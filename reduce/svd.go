package reduce

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/vector"
)

// State 是拟合后的截断 SVD 参数。
//
// Components 为 rank x cols 矩阵，每行是一个右奇异向量；
// Transform(X) = X · Componentsᵀ。
type State struct {
	Rank                   int            `json:"rank"`
	InputDim               int            `json:"input_dim"`
	Components             *vector.Matrix `json:"-"`
	SingularValues         []float64      `json:"singular_values"`
	ExplainedVarianceRatio []float64      `json:"explained_variance_ratio"`
}

// Fit 对特征矩阵做截断 SVD（不做中心化）。
// rank 会被截断到 min(rows, cols)；rank < 1 返回 INVALID_INPUT。
// 每个分量的符号固定为“绝对值最大的载荷为正”，同一输入多次拟合结果一致。
func Fit(m *vector.Matrix, rank int) (*State, error) {
	if m == nil || m.Rows == 0 || m.Cols == 0 {
		return nil, core.NewDomainError(core.ModuleReduce, core.ErrorCodeEmptyCatalog,
			"reduce: cannot fit on an empty matrix")
	}
	if rank < 1 {
		return nil, core.NewDomainError(core.ModuleReduce, core.ErrorCodeInvalidInput,
			fmt.Sprintf("reduce: rank must be positive, got %d", rank))
	}
	if limit := min(m.Rows, m.Cols); rank > limit {
		rank = limit
	}

	x := mat.NewDense(m.Rows, m.Cols, append([]float64(nil), m.Data...))
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, core.NewDomainError(core.ModuleReduce, core.ErrorCodeInternalError,
			"reduce: SVD factorization did not converge")
	}
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	comps := vector.NewMatrix(rank, m.Cols)
	for k := 0; k < rank; k++ {
		row := comps.Row(k)
		for j := 0; j < m.Cols; j++ {
			row[j] = v.At(j, k)
		}
		flipSign(row)
	}

	state := &State{
		Rank:           rank,
		InputDim:       m.Cols,
		Components:     comps,
		SingularValues: append([]float64(nil), values[:rank]...),
	}

	reduced, err := state.Transform(m)
	if err != nil {
		return nil, err
	}
	state.ExplainedVarianceRatio = explainedVarianceRatio(m, reduced)
	return state, nil
}

// Transform 将特征矩阵投影到降维空间，列数必须与拟合时一致。
func (s *State) Transform(m *vector.Matrix) (*vector.Matrix, error) {
	if m.Cols != s.InputDim {
		return nil, core.NewDomainError(core.ModuleReduce, core.ErrorCodeInvalidInput,
			fmt.Sprintf("reduce: input has %d columns, fitted on %d", m.Cols, s.InputDim))
	}
	out := vector.NewMatrix(m.Rows, s.Rank)
	for i := 0; i < m.Rows; i++ {
		src := m.Row(i)
		dst := out.Row(i)
		for k := 0; k < s.Rank; k++ {
			dst[k] = vector.Dot(src, s.Components.Row(k))
		}
	}
	return out, nil
}

// flipSign 让绝对值最大的载荷为正（并列时取第一个）。
func flipSign(row []float64) {
	best, idx := -1.0, -1
	for j, v := range row {
		if a := math.Abs(v); a > best {
			best, idx = a, j
		}
	}
	if idx >= 0 && row[idx] < 0 {
		for j := range row {
			row[j] = -row[j]
		}
	}
}

// explainedVarianceRatio 每个分量上投影的方差 / 原始特征总方差。
func explainedVarianceRatio(x, reduced *vector.Matrix) []float64 {
	total := 0.0
	for j := 0; j < x.Cols; j++ {
		total += columnVariance(x, j)
	}
	ratios := make([]float64, reduced.Cols)
	if total == 0 {
		return ratios
	}
	for k := range ratios {
		ratios[k] = columnVariance(reduced, k) / total
	}
	return ratios
}

func columnVariance(m *vector.Matrix, col int) float64 {
	if m.Rows == 0 {
		return 0
	}
	mean := 0.0
	for i := 0; i < m.Rows; i++ {
		mean += m.At(i, col)
	}
	mean /= float64(m.Rows)
	v := 0.0
	for i := 0; i < m.Rows; i++ {
		d := m.At(i, col) - mean
		v += d * d
	}
	return v / float64(m.Rows)
}
