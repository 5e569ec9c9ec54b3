package translator

// StatusSnapshot 供展示层以固定间隔轮询的状态快照
type StatusSnapshot struct {
	Active  int  `json:"active"`
	Pending int  `json:"pending"`
	Ceiling int  `json:"ceiling"`
	Full    bool `json:"full"`

	TotalTasksInProcess int `json:"totalTasksInProcess"`

	TotalCharacters     int `json:"totalCharacters"`
	CompletedCharacters int `json:"completedCharacters"`
	RemainingCharacters int `json:"remainingCharacters"`

	ProgressPercentage            float64 `json:"progressPercentage"`
	EstimatedRemainingTimeSeconds int     `json:"estimatedRemainingTimeSeconds"`
	AverageSpeed                  int     `json:"averageSpeed"`
}

// Status 汇总调度器与速度统计，生成当前会话的完整状态快照
func (b *Batcher) Status() StatusSnapshot {
	sched := b.scheduler.Status()

	b.mu.Lock()
	total := b.totalChars
	completed := b.completedChars
	inProcess := len(b.groups)
	b.mu.Unlock()

	remaining := total - completed
	if remaining < 0 {
		remaining = 0
	}

	snapshot := StatusSnapshot{
		Active:              sched.Active,
		Pending:             sched.Pending,
		Ceiling:             sched.Ceiling,
		Full:                sched.Full,
		TotalTasksInProcess: inProcess,
		TotalCharacters:     total,
		CompletedCharacters: completed,
		RemainingCharacters: remaining,
	}

	if stats := b.scheduler.Stats(); stats != nil {
		snapshot.ProgressPercentage = stats.OverallProgress(completed, total)
		snapshot.EstimatedRemainingTimeSeconds = stats.RemainingTime(remaining)
		snapshot.AverageSpeed = stats.AverageSpeed()
	}

	return snapshot
}
