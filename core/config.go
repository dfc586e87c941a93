package core

// RecommendConfig 是推荐相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// DefaultTopN 返回默认的推荐数量
	DefaultTopN() int

	// DefaultReductionRank 返回默认的降维目标秩
	DefaultReductionRank() int
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultTopN() int {
	return 3
}

func (c *DefaultRecommendConfig) DefaultReductionRank() int {
	return 50
}
