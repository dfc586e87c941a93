package vector

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rushteam/prodrec/core"
)

const matrixHeaderSize = 8 // int32 rows + int32 cols

// MarshalBinary 将矩阵编码为小端字节序：int32 rows、int32 cols、rows*cols 个 float64。
// 编码按位保存 float64，解码后与原矩阵完全一致。
func (m *Matrix) MarshalBinary() ([]byte, error) {
	if m.Rows < 0 || m.Cols < 0 || m.Rows > math.MaxInt32 || m.Cols > math.MaxInt32 {
		return nil, fmt.Errorf("vector: matrix shape %dx%d out of range", m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return nil, fmt.Errorf("vector: matrix data length %d does not match shape %dx%d", len(m.Data), m.Rows, m.Cols)
	}
	buf := make([]byte, 0, matrixHeaderSize+8*len(m.Data))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Rows))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Cols))
	for _, v := range m.Data {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return buf, nil
}

// UnmarshalBinary 解码 MarshalBinary 的输出。
func (m *Matrix) UnmarshalBinary(data []byte) error {
	if len(data) < matrixHeaderSize {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: matrix blob too short")
	}
	rows := int(int32(binary.LittleEndian.Uint32(data[0:4])))
	cols := int(int32(binary.LittleEndian.Uint32(data[4:8])))
	if rows < 0 || cols < 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: negative matrix shape")
	}
	body := data[matrixHeaderSize:]
	// 先用 body 长度约束 rows*cols，避免伪造的形状导致乘法溢出
	n := len(body) / 8
	if len(body)%8 != 0 || (cols > 0 && rows > n/cols) || rows*cols != n {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			fmt.Sprintf("vector: matrix blob has %d bytes, does not fit shape %dx%d", len(body), rows, cols))
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[i*8:]))
	}
	m.Rows, m.Cols, m.Data = rows, cols, values
	return nil
}
