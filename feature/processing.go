package feature

import "math"

// ZScoreNormalizer Z-score 标准化（Standardization）
// 公式: z = (x - μ) / σ
// 特点: 均值变为 0，标准差变为 1；σ 为 0 时只做中心化（常量列编码为 0）
type ZScoreNormalizer struct {
	Mean map[string]float64 // 特征均值
	Std  map[string]float64 // 特征标准差（总体标准差）
}

// NewZScoreNormalizer 创建 Z-score 标准化器
func NewZScoreNormalizer(mean, std map[string]float64) *ZScoreNormalizer {
	return &ZScoreNormalizer{
		Mean: mean,
		Std:  std,
	}
}

// FitZScoreNormalizer 由样本拟合均值与标准差
func FitZScoreNormalizer(samples map[string][]float64) *ZScoreNormalizer {
	mean := make(map[string]float64, len(samples))
	std := make(map[string]float64, len(samples))
	for key, values := range samples {
		stats := ComputeStatistics(values)
		mean[key] = stats.Mean
		std[key] = stats.Std
	}
	return NewZScoreNormalizer(mean, std)
}

// NormalizeValueWithKey 标准化单个值（指定特征名）
func (n *ZScoreNormalizer) NormalizeValueWithKey(key string, value float64) float64 {
	return (value - n.Mean[key]) / n.Scale(key)
}

// Scale 返回除数：σ > 0 时为 σ，否则为 1
func (n *ZScoreNormalizer) Scale(key string) float64 {
	if std := n.Std[key]; std > 0 {
		return std
	}
	return 1
}

// FeatureStatistics 特征统计信息
type FeatureStatistics struct {
	Mean float64
	Std  float64 // 总体标准差
}

// ComputeStatistics 计算特征统计信息。
// 按输入顺序累加，保证同一份数据多次拟合结果一致。
func ComputeStatistics(values []float64) *FeatureStatistics {
	if len(values) == 0 {
		return &FeatureStatistics{}
	}
	stats := &FeatureStatistics{}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	stats.Mean = sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - stats.Mean) * (v - stats.Mean)
	}
	stats.Std = math.Sqrt(variance / float64(len(values)))
	return stats
}
