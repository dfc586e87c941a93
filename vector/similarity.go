package vector

import "math"

// Dot 计算点积。求和顺序固定，因此 Dot(a, b) 与 Dot(b, a) 按位相等。
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm 计算 L2 范数
func Norm(a []float64) float64 {
	return math.Sqrt(Dot(a, a))
}

// Cosine 计算余弦相似度：dot / (|a||b|)。
// 任一向量为零向量时返回 0；结果截断到 [-1, 1] 以吸收浮点误差。
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	return cosineWithNorms(a, b, Norm(a), Norm(b))
}

func cosineWithNorms(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	return clamp(Dot(a, b) / (normA * normB))
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

// selfSimilarity 非零向量与自身的相似度恒为 1，零向量为 0。
func selfSimilarity(norm float64) float64 {
	if norm == 0 {
		return 0
	}
	return 1
}

// rowNorms 计算每一行的范数
func rowNorms(m *Matrix) []float64 {
	norms := make([]float64, m.Rows)
	for i := range norms {
		norms[i] = Norm(m.Row(i))
	}
	return norms
}
