package translator

import "context"

// Provider 外部翻译提供商接口
type Provider interface {
	// Translate 在给定文档上下文中翻译一段文本
	Translate(ctx context.Context, docContext string, text string) (string, error)
}

// BatchProvider 支持结构化批量请求的翻译提供商。
// 实现此接口的提供商按索引接收与返回有序文本列表，
// 不再经过分隔符合并/拆分，因而不存在分段数不一致的失败路径。
type BatchProvider interface {
	// TranslateBatch 按原顺序翻译一组文本，返回等长的结果列表
	TranslateBatch(ctx context.Context, docContext string, texts []string) ([]string, error)
}

// Cache 缓存接口
type Cache interface {
	// Get 从缓存中获取值
	Get(key string) (string, bool)

	// Set 将值存储到缓存中
	Set(key string, value string) error

	// Clear 清除缓存
	Clear() error
}

// Detector 语言检测接口，用于跳过已经是目标语言的片段
type Detector interface {
	// Detect 返回文本的语言代码；无法判断时返回 "unknown"
	Detect(text string) string
}

// Renderer 外部渲染协作方：把翻译结果写回片段的来源位置
type Renderer interface {
	// Apply 将译文应用到片段来源
	Apply(origin any, translated string)
}

// Store 持久化键值存储接口，保存速度统计聚合
type Store interface {
	// Get 读取指定键的原始数据；键不存在时 ok 为 false
	Get(key string) (data []byte, ok bool, err error)

	// Set 写入指定键的原始数据
	Set(key string, data []byte) error
}
