package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 是环境变量前缀，嵌套层级用双下划线分隔：
//
//	PRODREC_CATALOG__PATH=products.csv        -> catalog.path
//	PRODREC_ARTIFACT__STORE__BACKEND=redis    -> artifact.store.backend
//	PRODREC_INDEX__MODE=on_demand             -> index.mode
const EnvPrefix = "PRODREC_"

// ConfigPathEnvVar 未显式传入路径时，从该环境变量读取配置文件路径
const ConfigPathEnvVar = "PRODREC_CONFIG"

// DefaultConfigPaths 按顺序查找的配置文件
var DefaultConfigPaths = []string{
	"prodrec.yaml",
	"prodrec.yml",
	"/etc/prodrec/prodrec.yaml",
}

// Load 加载配置：默认值 → YAML 文件 → 环境变量，最后校验。
// path 为空时依次尝试 PRODREC_CONFIG 与 DefaultConfigPaths，都不存在则只用默认值与环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc 将 PRODREC_A__B_C 转换为 a.b_c
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}
