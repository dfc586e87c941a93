package vector

import (
	"fmt"

	"github.com/rushteam/prodrec/core"
)

// Matrix 是行优先的稠密矩阵。特征矩阵、降维矩阵、相似度矩阵都用它承载，
// 因此两条 Pipeline 路径（降维/不降维）对相似度索引来说是同一种输入。
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

// NewMatrix 创建 rows x cols 的零矩阵。
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// FromRows 由二维切片构建矩阵，每行长度必须一致。
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), nil
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
				fmt.Sprintf("vector: row %d has %d columns, want %d", i, len(r), cols))
		}
		copy(m.Data[i*cols:(i+1)*cols], r)
	}
	return m, nil
}

// Row 返回第 i 行（共享底层数组，调用方不得修改）。
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// At 返回 (i, j) 元素
func (m *Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

// Set 设置 (i, j) 元素
func (m *Matrix) Set(i, j int, v float64) {
	m.Data[i*m.Cols+j] = v
}

// Equal 逐元素比较（按位相等）。
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Rows != o.Rows || m.Cols != o.Cols || len(m.Data) != len(o.Data) {
		return false
	}
	for i := range m.Data {
		if m.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}
