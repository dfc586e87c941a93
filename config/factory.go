package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
)

// StoreConfigKey 是注入到每个节点配置中的 core.Store，
// 需要读取存储的节点（如 filter.blacklist）从这里取得依赖。
const StoreConfigKey = "$store"

// LoadPipelineConfig 按扩展名读取 YAML 或 JSON 格式的 pipeline 配置。
func LoadPipelineConfig(path string) (*pipeline.Config, error) {
	var (
		cfg *pipeline.Config
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		cfg, err = pipeline.LoadFromJSON(path)
	default:
		cfg, err = pipeline.LoadFromYAML(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", path, err)
	}
	return cfg, nil
}

// BuildPostNodes 用注册表构建召回之后的节点。cfg 为 nil 时返回空列表。
func BuildPostNodes(cfg *pipeline.Config, store core.Store) ([]pipeline.Node, error) {
	if cfg == nil {
		return nil, nil
	}
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, core.WrapDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "pipeline", err)
	}
	factory := DefaultFactory()
	nodes := make([]pipeline.Node, 0, len(cfg.Pipeline.Nodes))
	for i, nc := range cfg.Pipeline.Nodes {
		conf := make(map[string]any, len(nc.Config)+1)
		for k, v := range nc.Config {
			conf[k] = v
		}
		if store != nil {
			conf[StoreConfigKey] = store
		}
		node, err := factory.Build(nc.Type, conf)
		if err != nil {
			return nil, core.WrapDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
				fmt.Sprintf("pipeline: node %d (%s)", i, nc.Type), err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// LoadPostNodes 读取并构建 pipeline 配置；path 为空返回空列表。
func LoadPostNodes(path string, store core.Store) ([]pipeline.Node, error) {
	if path == "" {
		return nil, nil
	}
	cfg, err := LoadPipelineConfig(path)
	if err != nil {
		return nil, err
	}
	return BuildPostNodes(cfg, store)
}
