// Package metrics 定义推荐引擎的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 推荐请求
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prodrec_recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"scene", "result"}, // result: "ok", "unknown_product", "error"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prodrec_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"scene"},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prodrec_recommend_results",
			Help:    "Number of products returned per recommendation",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)

	// 产物构建与持久化
	ArtifactBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prodrec_artifact_builds_total",
			Help: "Total number of artifact builds",
		},
		[]string{"reason", "status"}, // reason: "absent", "stale", "corrupt", "forced"
	)

	ArtifactBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prodrec_artifact_build_duration_seconds",
			Help:    "Duration of artifact builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ArtifactLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prodrec_artifact_loads_total",
			Help: "Total number of artifact load attempts",
		},
		[]string{"outcome"}, // "hit", "absent", "stale", "corrupt", "error"
	)

	ArtifactPersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prodrec_artifact_persist_errors_total",
			Help: "Total number of artifact persistence failures",
		},
		[]string{"backend", "operation"},
	)

	ArtifactBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prodrec_artifact_bytes",
			Help: "Encoded size of the last saved or loaded artifact",
		},
	)

	// 当前服务的目录与索引
	CatalogProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prodrec_catalog_products",
			Help: "Number of products in the serving catalog",
		},
	)

	FeatureDimensions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prodrec_feature_dimensions",
			Help: "Dimension of the vectors backing the similarity index",
		},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prodrec_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordRecommend 记录一次推荐请求
func RecordRecommend(scene, result string, results int, duration time.Duration) {
	if scene == "" {
		scene = "default"
	}
	RecommendRequests.WithLabelValues(scene, result).Inc()
	RecommendDuration.WithLabelValues(scene).Observe(duration.Seconds())
	if result == "ok" || result == "unknown_product" {
		RecommendResults.Observe(float64(results))
	}
}

// RecordArtifactBuild 记录一次产物构建
func RecordArtifactBuild(reason string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ArtifactBuilds.WithLabelValues(reason, status).Inc()
	if err == nil {
		ArtifactBuildDuration.Observe(duration.Seconds())
	}
}

// RecordArtifactLoad 记录一次产物加载结果
func RecordArtifactLoad(outcome string) {
	ArtifactLoads.WithLabelValues(outcome).Inc()
}

// RecordPersistError 记录一次存储失败
func RecordPersistError(backend, operation string) {
	ArtifactPersistErrors.WithLabelValues(backend, operation).Inc()
}

// SetServing 更新当前服务代际的规模
func SetServing(products, dims int) {
	CatalogProducts.Set(float64(products))
	FeatureDimensions.Set(float64(dims))
}
