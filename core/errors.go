package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - Err 保存底层原因，支持 errors.Is / errors.As 链式检查
//
// 使用场景：
//   - Catalog 错误：SCHEMA, EMPTY_CATALOG, INVALID_INPUT
//   - Artifact 错误：STALE_ARTIFACT, PERSISTENCE, NOT_FOUND
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "SCHEMA", "NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "catalog", "artifact", "store"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 按 Module + Code 比较，便于 errors.Is(err, ErrStoreNotFound) 这类哨兵检查。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的第一个 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层原因的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 推荐引擎错误代码
	ErrorCodeSchema        = "SCHEMA"         // 目录缺少必需列，启动失败
	ErrorCodeEmptyCatalog  = "EMPTY_CATALOG"  // 目录为空，无法拟合
	ErrorCodeStaleArtifact = "STALE_ARTIFACT" // 产物与当前目录不一致，需要重建
	ErrorCodePersistence   = "PERSISTENCE"    // 产物读写失败（损坏/版本不兼容）
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleCatalog  = "catalog"  // 商品目录
	ModuleFeature  = "feature"  // 特征编码
	ModuleReduce   = "reduce"   // 降维
	ModuleVector   = "vector"   // 向量/相似度索引
	ModuleArtifact = "artifact" // 产物持久化
	ModuleService  = "service"  // 服务模块
	ModuleDSL      = "dsl"      // 表达式
	ModulePipeline = "pipeline" // 推荐流水线
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsSchema 检查错误是否为 SCHEMA（致命）
func IsSchema(err error) bool { return hasCode(err, ErrorCodeSchema) }

// IsEmptyCatalog 检查错误是否为 EMPTY_CATALOG（致命）
func IsEmptyCatalog(err error) bool { return hasCode(err, ErrorCodeEmptyCatalog) }

// IsStale 检查错误是否为 STALE_ARTIFACT
func IsStale(err error) bool { return hasCode(err, ErrorCodeStaleArtifact) }

// IsPersistence 检查错误是否为 PERSISTENCE
func IsPersistence(err error) bool { return hasCode(err, ErrorCodePersistence) }

// IsFatal 只有 SCHEMA / EMPTY_CATALOG 会阻止进程启动，其余错误都可以降级处理。
func IsFatal(err error) bool {
	return IsSchema(err) || IsEmptyCatalog(err)
}
