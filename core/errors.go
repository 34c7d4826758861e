package core

// DomainError 是领域层的统一错误类型。
//
// 错误分级：
//   - 致命（启动期）：模型/片库工件缺失或损坏，由 model.Store 的加载入口返回，不被吞掉
//   - 可降级（单条）：元数据源单条查询失败，产出降级记录，不中断批次
//   - 可降级（单次请求）：标题未命中、用户未知、情绪标签未识别，均走文档化回退路径
//
// 只有致命类错误会跨越组件边界向上传播。
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "BAD_ARTIFACT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "model", "store", "enrich"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError 获取 DomainError，如果不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeUnavailable  = "UNAVAILABLE"   // 服务不可用
	ErrorCodeBadArtifact  = "BAD_ARTIFACT"  // 模型/片库工件缺失或损坏
	ErrorCodeInvalidInput = "INVALID_INPUT" // 输入无效
)

// 模块名称常量
const (
	ModuleModel   = "model"   // 模型工件
	ModuleStore   = "store"   // 存储
	ModuleEnrich  = "enrich"  // 元数据补全
	ModuleService = "service" // 远程推理服务
)

// IsNotFound 检查错误是否为 NOT_FOUND。
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsBadArtifact 检查错误是否为启动期工件错误。
func IsBadArtifact(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeBadArtifact
	}
	return false
}
