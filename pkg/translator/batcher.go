package translator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nerdneilsfield/go-page-translator/internal/config"
	"go.uber.org/zap"
)

// DefaultTranslationTimeout 单个分组翻译的固定超时
const DefaultTranslationTimeout = 60 * time.Second

// Batcher 把零散的文本片段聚合为大小受限的分组，
// 经缓存与调度器把每个分组恰好派发一次，并把结果映射回片段。
// 分组生命周期（Open→Dispatched→Done）由 Batcher 独占管理。
type Batcher struct {
	mu     sync.Mutex
	groups []*Group
	epoch  int

	totalChars     int
	completedChars int

	provider  Provider
	scheduler *Scheduler
	config    config.Provider

	cache      Cache
	detector   Detector
	renderer   Renderer
	logger     *zap.Logger
	docContext string
	targetLang string
	timeout    time.Duration

	wg sync.WaitGroup
}

// BatcherOption 定义 Batcher 选项
type BatcherOption func(*Batcher)

// WithCache 设置缓存
func WithCache(cache Cache) BatcherOption {
	return func(b *Batcher) { b.cache = cache }
}

// WithDetector 设置语言检测器与目标语言；
// 检测为目标语言的片段视为已解决，不再进入分组
func WithDetector(detector Detector, targetLang string) BatcherOption {
	return func(b *Batcher) {
		b.detector = detector
		b.targetLang = targetLang
	}
}

// WithRenderer 设置渲染协作方
func WithRenderer(renderer Renderer) BatcherOption {
	return func(b *Batcher) { b.renderer = renderer }
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) BatcherOption {
	return func(b *Batcher) { b.logger = logger }
}

// WithDocContext 设置随每次翻译请求一起发送的文档上下文
func WithDocContext(docContext string) BatcherOption {
	return func(b *Batcher) { b.docContext = docContext }
}

// WithTimeout 覆盖单个分组的翻译超时
func WithTimeout(timeout time.Duration) BatcherOption {
	return func(b *Batcher) { b.timeout = timeout }
}

// NewBatcher 创建批处理器
func NewBatcher(provider Provider, scheduler *Scheduler, cfg config.Provider, opts ...BatcherOption) *Batcher {
	b := &Batcher{
		provider:  provider,
		scheduler: scheduler,
		config:    cfg,
		timeout:   DefaultTranslationTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddFragment 接收一段新观察到的文本。空白文本或已经是目标语言的
// 文本不做任何处理。放置算法从最新的分组向最旧扫描，选择第一个
// 能容纳该片段的 Open 分组；没有合适的分组时新开一个。
// 最新优先的扫描让新分组保持"热"状态，旧分组更快被派发。
func (b *Batcher) AddFragment(text string, origin any) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if b.IsFragmentResolved(text) {
		return
	}

	frag := newTextFragment(text, origin)
	fragLen := len([]rune(text))

	b.mu.Lock()
	defer b.mu.Unlock()

	values := b.config.Get()
	b.totalChars += fragLen

	for i := len(b.groups) - 1; i >= 0; i-- {
		if b.groups[i].canAccept(fragLen, values.BatchMaxSize) {
			b.groups[i].Fragments = append(b.groups[i].Fragments, frag)
			return
		}
	}

	b.groups = append(b.groups, newGroup(frag, values.Separator))
}

// IsFragmentResolved 判断文本是否已经是目标语言，是则视为
// 预先解决，不进入批处理
func (b *Batcher) IsFragmentResolved(text string) bool {
	if b.detector == nil || b.targetLang == "" {
		return false
	}
	return b.detector.Detect(text) == b.targetLang
}

// FlushAll 派发所有尚未派发的 Open 分组。每个分组独立并发地开始
// 翻译，相互不等待；整体并发只受调度器约束。方法在所有派发
// 启动后即返回。重入调用对已派发的分组是空操作。
func (b *Batcher) FlushAll() {
	b.mu.Lock()
	var dispatch []*Group
	for _, g := range b.groups {
		if g.Status == GroupOpen {
			g.Status = GroupDispatched
			dispatch = append(dispatch, g)
		}
	}
	epoch := b.epoch
	b.mu.Unlock()

	if len(dispatch) == 0 {
		return
	}
	b.logger.Debug("flushing groups", zap.Int("count", len(dispatch)))

	for _, g := range dispatch {
		b.wg.Add(1)
		go func(g *Group) {
			defer b.wg.Done()
			b.translateGroup(g, epoch)
		}(g)
	}
}

// translateGroup 执行单个分组的完整翻译流程。
// 提供商错误、超时或返回原文都降级为"以原文解决"；
// 任何路径分组都会到达 Done 并离开活跃集合。
func (b *Batcher) translateGroup(group *Group, epoch int) {
	combined := group.CombinedText()

	// 缓存命中不经过调度器，也不计入速度统计
	if b.cache != nil {
		if cached, ok := b.cache.Get(combined); ok {
			group.TranslatedText = cached
			b.apply(splitResult(group, cached))
			b.finish(group, epoch)
			b.logger.Debug("cache hit", zap.String("groupID", group.ID))
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	var batchResults []string
	size := len([]rune(combined))

	result, err := b.scheduler.Submit(ctx, size, func(ctx context.Context) (string, error) {
		if bp, ok := b.provider.(BatchProvider); ok {
			texts := make([]string, len(group.Fragments))
			for i, f := range group.Fragments {
				texts[i] = f.Text
			}
			res, err := bp.TranslateBatch(ctx, b.docContext, texts)
			if err != nil {
				return "", err
			}
			batchResults = res
			return strings.Join(res, group.separator), nil
		}
		return b.provider.Translate(ctx, b.docContext, combined)
	})

	switch {
	case err != nil:
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrProviderTimeout
		}
		// 错误与超时同样处理：以原文解决，不重试
		b.logger.Warn("group translation failed, keeping original text",
			zap.String("groupID", group.ID),
			zap.Error(err))
		b.resolveWithOriginal(group)

	case batchResults != nil:
		group.TranslatedText = result
		if b.cache != nil {
			if cerr := b.cache.Set(combined, result); cerr != nil {
				b.logger.Warn("failed to cache translation", zap.Error(cerr))
			}
		}
		b.apply(applyBatchResult(group, batchResults))

	case result == combined:
		// 译文与原文相同：视为无需翻译
		b.resolveWithOriginal(group)

	default:
		group.TranslatedText = result
		if b.cache != nil {
			if cerr := b.cache.Set(combined, result); cerr != nil {
				b.logger.Warn("failed to cache translation", zap.Error(cerr))
			}
		}
		segments := splitResult(group, result)
		if len(segments) < len(group.Fragments) {
			b.logger.Warn("applying whole translation to first fragment",
				zap.String("groupID", group.ID),
				zap.Error(ErrSegmentMismatch))
		}
		b.apply(segments)
	}

	b.finish(group, epoch)
}

// resolveWithOriginal 把分组内所有片段标记为已解决但不改动文本
func (b *Batcher) resolveWithOriginal(group *Group) {
	for _, f := range group.Fragments {
		f.Resolved = true
	}
}

// apply 把映射好的译文交给渲染协作方
func (b *Batcher) apply(segments []appliedSegment) {
	if b.renderer == nil {
		return
	}
	for _, seg := range segments {
		b.renderer.Apply(seg.Fragment.Origin, seg.Text)
	}
}

// finish 把分组标记为 Done 并从活跃集合移除。
// epoch 不匹配说明期间发生过 Clear，计数器不再更新。
func (b *Batcher) finish(group *Group, epoch int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	group.Status = GroupDone
	if epoch != b.epoch {
		return
	}

	for i, g := range b.groups {
		if g == group {
			b.groups = append(b.groups[:i], b.groups[i+1:]...)
			break
		}
	}
	b.completedChars += group.CharCount()
}

// Clear 丢弃所有分组并重置处理状态；已派发的提供商调用
// 不会被召回，其结果到达后也不再影响计数
func (b *Batcher) Clear() {
	b.mu.Lock()
	b.groups = nil
	b.totalChars = 0
	b.completedChars = 0
	b.epoch++
	b.mu.Unlock()

	b.logger.Info("batcher cleared")
}

// Wait 阻塞直到所有已派发的分组结束；供调用方在关闭前排空使用
func (b *Batcher) Wait() {
	b.wg.Wait()
}
