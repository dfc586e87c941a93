package core

import "context"

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 领域层定义接口，基础设施层实现接口，避免循环依赖
//
// 使用场景：
//   - 产物（Artifact）持久化：编码器参数、降维参数、相似度矩阵
//
// 实现：
//   - store.FileStore / store.MemoryStore
//   - store.RedisStore / store.BadgerStore / store.SQLiteStore
//
// Set 必须是原子的：读者要么看到旧值，要么看到完整的新值。
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值，不存在时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 原子写入单个 key-value
	Set(ctx context.Context, key string, value []byte) error

	// Delete 删除单个 key，key 不存在不视为错误
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// ErrStoreNotFound 表示 key 不存在
var ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
