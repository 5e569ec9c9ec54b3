package translator

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAverageSpeed 无历史数据时使用的平均速度（字符/秒）
const DefaultAverageSpeed = 20

// statsStoreKey 统计聚合在持久化存储中的固定键
const statsStoreKey = "translation_speed_stats"

// defaultMaxTaskRecords 最近任务窗口的默认容量
const defaultMaxTaskRecords = 50

// SpeedHistory 持久化的速度统计聚合。
// 累计字符数与累计耗时在显式重置前单调不减。
type SpeedHistory struct {
	TotalChars   int       `json:"total_chars"`
	TotalTimeMs  int64     `json:"total_time_ms"`
	AverageSpeed int       `json:"average_speed"`
	TaskCount    int       `json:"task_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TaskRecord 一次翻译任务的计时记录
type TaskRecord struct {
	ID         string     `json:"id"`
	CharCount  int        `json:"char_count"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty"`
}

// persistedStats 存储中的完整数据块
type persistedStats struct {
	Stats          SpeedHistory `json:"stats"`
	RecentTasks    []TaskRecord `json:"recent_tasks"`
	MaxTaskRecords int          `json:"max_task_records"`
}

// SpeedTracker 记录任务的开始与完成，累计字符吞吐量，
// 计算平均速度并据此推导 ETA 与进度百分比。
// 聚合在启动时从存储加载，每个任务完成后写回。
type SpeedTracker struct {
	mu             sync.Mutex
	stats          SpeedHistory
	live           map[string]TaskRecord
	recent         []TaskRecord
	maxTaskRecords int

	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewSpeedTracker 创建速度统计器并加载持久化的聚合；
// store 可以为 nil（不持久化），加载失败时回退到默认空统计
func NewSpeedTracker(store Store, logger *zap.Logger) *SpeedTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &SpeedTracker{
		stats:          defaultSpeedHistory(),
		live:           make(map[string]TaskRecord),
		maxTaskRecords: defaultMaxTaskRecords,
		store:          store,
		logger:         logger,
		now:            time.Now,
	}
	t.load()
	return t
}

func defaultSpeedHistory() SpeedHistory {
	return SpeedHistory{AverageSpeed: DefaultAverageSpeed}
}

// load 从存储恢复聚合；未完成的任务记录重新进入活跃集合
func (t *SpeedTracker) load() {
	if t.store == nil {
		return
	}

	data, ok, err := t.store.Get(statsStoreKey)
	if err != nil {
		t.logger.Warn("failed to load speed stats, using defaults", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	var blob persistedStats
	if err := json.Unmarshal(data, &blob); err != nil {
		t.logger.Warn("failed to decode speed stats, using defaults", zap.Error(err))
		return
	}

	t.stats = blob.Stats
	if t.stats.TaskCount == 0 && t.stats.AverageSpeed == 0 {
		t.stats.AverageSpeed = DefaultAverageSpeed
	}
	if blob.MaxTaskRecords > 0 {
		t.maxTaskRecords = blob.MaxTaskRecords
	}

	orphans := 0
	for _, rec := range blob.RecentTasks {
		if rec.EndedAt == nil {
			// 崩溃恢复记账：上次运行中未完成的任务重新进入活跃集合
			t.live[rec.ID] = rec
			orphans++
			continue
		}
		t.recent = append(t.recent, rec)
	}
	if orphans > 0 {
		t.logger.Warn("restored unfinished tasks from previous run",
			zap.Int("count", orphans))
	}
}

// Start 记录任务开始；相同标识已存在时为空操作
func (t *SpeedTracker) Start(taskID string, charCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.live[taskID]; exists {
		return
	}
	t.live[taskID] = TaskRecord{
		ID:        taskID,
		CharCount: charCount,
		StartedAt: t.now(),
	}
}

// Complete 记录任务完成并更新聚合。
// 推导出的耗时不为正时视为测量噪声，不计入聚合，
// 但任务仍会从活跃集合中移除。
func (t *SpeedTracker) Complete(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.live[taskID]
	if !exists {
		return
	}
	delete(t.live, taskID)

	end := t.now()
	durMs := end.Sub(rec.StartedAt).Milliseconds()
	if durMs <= 0 {
		return
	}

	rec.EndedAt = &end
	rec.DurationMs = durMs

	t.stats.TotalChars += rec.CharCount
	t.stats.TotalTimeMs += durMs
	t.stats.TaskCount++
	t.stats.AverageSpeed = int(math.Round(
		float64(t.stats.TotalChars) / float64(t.stats.TotalTimeMs) * 1000))
	t.stats.UpdatedAt = end

	t.recent = append(t.recent, rec)
	if len(t.recent) > t.maxTaskRecords {
		t.recent = t.recent[len(t.recent)-t.maxTaskRecords:]
	}

	t.persist()

	t.logger.Debug("task completed",
		zap.String("taskID", taskID),
		zap.Int("charCount", rec.CharCount),
		zap.Int64("durationMs", durMs),
		zap.Int("averageSpeed", t.stats.AverageSpeed))
}

// AverageSpeed 返回当前平均速度（字符/秒），无历史时为默认值
func (t *SpeedTracker) AverageSpeed() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stats.TaskCount == 0 {
		return DefaultAverageSpeed
	}
	return t.stats.AverageSpeed
}

// RemainingTime 按平均速度估算剩余秒数；速度不为正时返回 0
func (t *SpeedTracker) RemainingTime(remainingChars int) int {
	speed := t.AverageSpeed()
	if speed <= 0 || remainingChars <= 0 {
		return 0
	}
	return int(math.Ceil(float64(remainingChars) / float64(speed)))
}

// OverallProgress 返回完成百分比，范围 [0,100]；total 不为正时返回 0
func (t *SpeedTracker) OverallProgress(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(completed) / float64(total) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// LiveTasks 当前活跃任务数
func (t *SpeedTracker) LiveTasks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// History 返回聚合的副本
func (t *SpeedTracker) History() SpeedHistory {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Reset 将所有累计字段归零、清空活跃任务并持久化重置后的状态
func (t *SpeedTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats = defaultSpeedHistory()
	t.live = make(map[string]TaskRecord)
	t.recent = nil
	t.persist()

	t.logger.Info("speed stats reset")
}

// persist 写回聚合；调用方必须持有锁。
// 活跃任务一并写入，以便重启后恢复记账。
func (t *SpeedTracker) persist() {
	if t.store == nil {
		return
	}

	records := make([]TaskRecord, 0, len(t.recent)+len(t.live))
	records = append(records, t.recent...)
	for _, rec := range t.live {
		records = append(records, rec)
	}

	blob := persistedStats{
		Stats:          t.stats,
		RecentTasks:    records,
		MaxTaskRecords: t.maxTaskRecords,
	}

	data, err := json.Marshal(blob)
	if err != nil {
		t.logger.Warn("failed to encode speed stats", zap.Error(err))
		return
	}
	if err := t.store.Set(statsStoreKey, data); err != nil {
		t.logger.Warn("failed to save speed stats", zap.Error(err))
	}
}

// FileStore 基于文件系统的键值存储实现，每个键对应一个 JSON 文件
type FileStore struct {
	basePath string
	mutex    sync.Mutex
}

// NewFileStore 创建文件存储
func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

// Get 读取指定键的数据
func (fs *FileStore) Get(key string) ([]byte, bool, error) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	data, err := os.ReadFile(filepath.Join(fs.basePath, key+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set 写入指定键的数据
func (fs *FileStore) Set(key string, data []byte) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if err := os.MkdirAll(fs.basePath, 0o755); err != nil {
		return fmt.Errorf("创建存储目录失败: %w", err)
	}
	return os.WriteFile(filepath.Join(fs.basePath, key+".json"), data, 0o644)
}
