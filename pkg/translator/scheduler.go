package translator

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nerdneilsfield/go-page-translator/internal/config"
	"go.uber.org/zap"
)

// WorkFunc 一次翻译调用；由调度器在获得槽位后执行
type WorkFunc func(ctx context.Context) (string, error)

// SchedulerStatus 调度器状态快照
type SchedulerStatus struct {
	Active  int
	Pending int
	Ceiling int
	Full    bool
}

// pendingTask 排队等待槽位的任务
type pendingTask struct {
	ready    chan struct{}
	promoted bool
	cleared  bool
}

// Scheduler 有界并发调度器：活跃数低于上限时任务立即开始，
// 否则按提交顺序排队（FIFO），完成时同步提升队首任务。
// 并发上限在每次准入决策时从配置重新读取，运行期间的修改
// 对新的准入立即生效。
type Scheduler struct {
	mu      sync.Mutex
	active  int
	pending []*pendingTask

	config config.Provider
	stats  *SpeedTracker
	logger *zap.Logger
}

// NewScheduler 创建调度器；stats 可以为 nil
func NewScheduler(cfg config.Provider, stats *SpeedTracker, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config: cfg,
		stats:  stats,
		logger: logger,
	}
}

// Submit 提交一个翻译任务并阻塞等待其结果。
// charCount 仅用于速度统计。活跃数低于上限时任务立即开始，
// 否则排队直到有槽位释放。工作函数返回的错误原样传给调用方。
func (s *Scheduler) Submit(ctx context.Context, charCount int, work WorkFunc) (string, error) {
	s.mu.Lock()
	ceiling := s.config.Get().MaxConcurrentTranslations
	if s.active < ceiling {
		s.active++
		s.mu.Unlock()
		return s.run(ctx, charCount, work)
	}

	task := &pendingTask{ready: make(chan struct{})}
	s.pending = append(s.pending, task)
	queued := len(s.pending)
	s.mu.Unlock()

	s.logger.Debug("task queued",
		zap.Int("pending", queued),
		zap.Int("ceiling", ceiling))

	select {
	case <-task.ready:
		if task.cleared {
			return "", ErrPendingCleared
		}
		// 提升时已经占用了槽位
		return s.run(ctx, charCount, work)
	case <-ctx.Done():
		s.mu.Lock()
		if task.promoted {
			// 提升与取消竞争：槽位已被占用，按完成处理释放
			s.mu.Unlock()
			s.complete()
			return "", ctx.Err()
		}
		if !task.cleared {
			s.removePending(task)
		}
		s.mu.Unlock()
		return "", ctx.Err()
	}
}

// run 在已持有槽位的前提下执行任务
func (s *Scheduler) run(ctx context.Context, charCount int, work WorkFunc) (string, error) {
	taskID := uuid.New().String()
	if s.stats != nil {
		s.stats.Start(taskID, charCount)
	}

	result, err := work(ctx)

	s.complete()
	if s.stats != nil {
		s.stats.Complete(taskID)
	}

	if err != nil {
		s.logger.Debug("task finished with error", zap.Error(err))
	}
	return result, err
}

// complete 释放槽位并同步提升队首任务，保证有排队任务时槽位不空闲
func (s *Scheduler) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active--
	if len(s.pending) == 0 {
		return
	}

	next := s.pending[0]
	s.pending = s.pending[1:]
	next.promoted = true
	s.active++
	close(next.ready)
}

// removePending 从等待队列中移除一个任务；调用方必须持有锁
func (s *Scheduler) removePending(task *pendingTask) {
	for i, p := range s.pending {
		if p == task {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// Stats 返回调度器关联的速度统计器；可能为 nil
func (s *Scheduler) Stats() *SpeedTracker {
	return s.stats
}

// Status 返回当前状态快照
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	ceiling := s.config.Get().MaxConcurrentTranslations
	return SchedulerStatus{
		Active:  s.active,
		Pending: len(s.pending),
		Ceiling: ceiling,
		Full:    s.active >= ceiling,
	}
}

// ClearPending 丢弃所有尚未开始的排队任务，不影响已在执行的任务。
// 被丢弃任务的提交方收到 ErrPendingCleared。
func (s *Scheduler) ClearPending() {
	s.mu.Lock()
	cleared := s.pending
	s.pending = nil
	for _, p := range cleared {
		p.cleared = true
		close(p.ready)
	}
	s.mu.Unlock()

	if len(cleared) > 0 {
		s.logger.Info("cleared pending tasks", zap.Int("count", len(cleared)))
	}
}

// CanAcceptMore 背压信号：排队长度达到上限的 3 倍时返回 false，
// 提示上游暂停产生新任务
func (s *Scheduler) CanAcceptMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ceiling := s.config.Get().MaxConcurrentTranslations
	return len(s.pending) < ceiling*3
}
