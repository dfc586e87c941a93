package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/prodrec/artifact"
	"github.com/rushteam/prodrec/feature"
	"github.com/rushteam/prodrec/pkg/logging"
	"github.com/rushteam/prodrec/store"
	"github.com/rushteam/prodrec/vector"
)

// Config 是应用配置，由 Load 按 默认值 → YAML 文件 → 环境变量 的顺序合并。
type Config struct {
	Catalog   CatalogConfig   `koanf:"catalog"`
	Features  feature.Columns `koanf:"features"`
	Reduction ReductionConfig `koanf:"reduction"`
	Index     IndexConfig     `koanf:"index"`
	Artifact  ArtifactConfig  `koanf:"artifact"`
	Recommend RecommendConfig `koanf:"recommend"`
	Server    ServerConfig    `koanf:"server"`
	Log       logging.Config  `koanf:"log"`
}

// CatalogConfig 商品目录
type CatalogConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// ReductionConfig 降维（截断 SVD），默认关闭
type ReductionConfig struct {
	Enabled bool `koanf:"enabled"`
	Rank    int  `koanf:"rank" validate:"gte=1"`
}

// IndexConfig 相似度索引
type IndexConfig struct {
	Mode    string `koanf:"mode" validate:"oneof=matrix on_demand"`
	Workers int    `koanf:"workers" validate:"gte=0"`
}

// ArtifactConfig 产物持久化
type ArtifactConfig struct {
	Key      string       `koanf:"key" validate:"required"`
	Compress bool         `koanf:"compress"`
	Store    store.Config `koanf:"store"`
}

// RecommendConfig 推荐服务
type RecommendConfig struct {
	DefaultN int `koanf:"default_n" validate:"gte=1"`

	// Pipeline 是召回之后的节点配置（YAML），为空表示不做后处理
	Pipeline string `koanf:"pipeline"`
}

// ServerConfig HTTP 服务
type ServerConfig struct {
	Addr         string        `koanf:"addr" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// AdminToken 非空时，管理接口需要 Authorization: Bearer <token>
	AdminToken string `koanf:"admin_token"`

	// CORSOrigins 为空时不启用 CORS
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit 每个 IP 每分钟的请求数，0 表示不限流
	RateLimit int `koanf:"rate_limit" validate:"gte=0"`
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{
		Catalog:  CatalogConfig{Path: "data.csv"},
		Features: feature.DefaultColumns(),
		Reduction: ReductionConfig{
			Enabled: false,
			Rank:    50,
		},
		Index: IndexConfig{
			Mode:    string(vector.ModeMatrix),
			Workers: 0,
		},
		Artifact: ArtifactConfig{
			Key:      artifact.DefaultKey,
			Compress: true,
		},
		Recommend: RecommendConfig{DefaultN: 3},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit:    600,
		},
		Log: logging.Config{Level: "info", Format: "json"},
	}
	cfg.Artifact.Store.Backend = store.BackendFile
	cfg.Artifact.Store.File.Dir = ".prodrec"
	cfg.Artifact.Store.Redis.Addr = "127.0.0.1:6379"
	cfg.Artifact.Store.Badger.Dir = ".prodrec/badger"
	cfg.Artifact.Store.SQLite.Path = ".prodrec/artifacts.db"
	return cfg
}

var validate = validator.New()

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Features.Numeric)+len(c.Features.Categorical) == 0 {
		return fmt.Errorf("invalid config: features: no columns configured")
	}
	return nil
}

// BuildOptions 返回产物构建参数
func (c *Config) BuildOptions() artifact.Options {
	return artifact.Options{
		Columns:          c.Features,
		ReductionEnabled: c.Reduction.Enabled,
		Rank:             c.Reduction.Rank,
		Mode:             vector.Mode(c.Index.Mode),
		Workers:          c.Index.Workers,
	}
}
