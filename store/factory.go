package store

import (
	"context"
	"fmt"

	"github.com/rushteam/prodrec/core"
)

// Backend 名称
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config 是存储后端配置
type Config struct {
	Backend string `koanf:"backend" validate:"required,oneof=file memory redis badger sqlite"`

	File struct {
		Dir string `koanf:"dir"`
	} `koanf:"file"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Badger struct {
		Dir string `koanf:"dir"`
	} `koanf:"badger"`

	SQLite struct {
		Path string `koanf:"path"`
	} `koanf:"sqlite"`
}

// Open 按配置创建存储后端。
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	switch cfg.Backend {
	case BackendFile:
		return NewFileStore(cfg.File.Dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	case BackendBadger:
		return NewBadgerStore(cfg.Badger.Dir)
	case BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLite.Path)
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("store: unknown backend %q", cfg.Backend))
	}
}
