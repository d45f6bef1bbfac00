package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"f2v2f-service/ddd/infrastructure/queue"
	"f2v2f-service/pkg/logger"
)

// JobExecutor 执行单个任务。Execute 返回时任务已处于终态。
type JobExecutor interface {
	ExecuteJob(ctx context.Context, jobID string) error
	// AbandonJob 将未执行的排队任务标记为失败
	AbandonJob(ctx context.Context, jobID string, reason string)
}

// CodecWorker 编解码工作器接口
type CodecWorker interface {
	// Start 启动工作器
	Start(ctx context.Context) error

	// Stop 停止接收新任务并等待进行中的任务完成
	Stop() error

	// IsRunning 检查工作器是否运行中
	IsRunning() bool

	// GetStats 获取工作器统计信息
	GetStats() WorkerStats
}

// WorkerStats 工作器统计信息
type WorkerStats struct {
	ProcessedJobs    uint64    `json:"processed_jobs"`
	SuccessfulJobs   uint64    `json:"successful_jobs"`
	FailedJobs       uint64    `json:"failed_jobs"`
	AbandonedJobs    uint64    `json:"abandoned_jobs"`
	CurrentlyRunning int       `json:"currently_running"`
	WorkerCount      int       `json:"worker_count"`
	StartTime        time.Time `json:"start_time"`
	LastJobTime      time.Time `json:"last_job_time"`
}

// codecWorkerImpl 固定数量的协程从有界队列中取任务执行
type codecWorkerImpl struct {
	id          string
	jobQueue    queue.JobQueue
	executor    JobExecutor
	workerCount int
	gracePeriod time.Duration
	running     bool
	stats       WorkerStats
	mu          sync.RWMutex
	wg          sync.WaitGroup
}

// NewCodecWorker 创建编解码工作器
func NewCodecWorker(id string, jobQueue queue.JobQueue, executor JobExecutor, workerCount int, gracePeriod time.Duration) CodecWorker {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &codecWorkerImpl{
		id:          id,
		jobQueue:    jobQueue,
		executor:    executor,
		workerCount: workerCount,
		gracePeriod: gracePeriod,
		stats: WorkerStats{
			WorkerCount: workerCount,
			StartTime:   time.Now(),
		},
	}
}

// Start 启动工作器。任务执行使用与 ctx 解绑的上下文，取消 ctx 不会中断正在运行的任务。
func (w *codecWorkerImpl) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("worker %s is already running", w.id)
	}
	w.running = true
	w.stats.StartTime = time.Now()

	logger.Infof("Starting codec worker %s with %d goroutines", w.id, w.workerCount)

	jobCtx := context.WithoutCancel(ctx)
	for i := 0; i < w.workerCount; i++ {
		w.wg.Add(1)
		go w.workerLoop(jobCtx, i)
	}
	return nil
}

// Stop 关闭队列，把未开始的任务标记为失败，然后在宽限期内等待进行中的任务
func (w *codecWorkerImpl) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	logger.Infof("Stopping codec worker %s", w.id)

	for _, id := range w.jobQueue.Close() {
		w.executor.AbandonJob(context.Background(), id, "service shutting down before the job started")
		w.updateStats(func(stats *WorkerStats) { stats.AbandonedJobs++ })
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	if w.gracePeriod <= 0 {
		<-done
	} else {
		select {
		case <-done:
		case <-time.After(w.gracePeriod):
			return fmt.Errorf("worker %s: %d jobs still running after %s", w.id, w.GetStats().CurrentlyRunning, w.gracePeriod)
		}
	}
	logger.Infof("Codec worker %s stopped", w.id)
	return nil
}

// IsRunning 检查工作器是否运行中
func (w *codecWorkerImpl) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats 获取工作器统计信息
func (w *codecWorkerImpl) GetStats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// workerLoop 工作器主循环，队列关闭后退出
func (w *codecWorkerImpl) workerLoop(ctx context.Context, workerID int) {
	defer w.wg.Done()

	logger.Debugf("Worker %s-%d started", w.id, workerID)
	defer logger.Debugf("Worker %s-%d stopped", w.id, workerID)

	for {
		jobID, err := w.jobQueue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || errors.Is(err, context.Canceled) {
				return
			}
			logger.Warnf("Worker %s-%d failed to dequeue job: %v", w.id, workerID, err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		w.processJob(ctx, jobID, workerID)
	}
}

// processJob 处理单个任务
func (w *codecWorkerImpl) processJob(ctx context.Context, jobID string, workerID int) {
	logger.Debugf("Worker %s-%d processing job %s", w.id, workerID, jobID)

	w.updateStats(func(stats *WorkerStats) {
		stats.CurrentlyRunning++
		stats.LastJobTime = time.Now()
	})
	defer w.updateStats(func(stats *WorkerStats) {
		stats.CurrentlyRunning--
		stats.ProcessedJobs++
	})

	if err := w.executor.ExecuteJob(ctx, jobID); err != nil {
		logger.Warnf("Worker %s-%d job %s failed: %v", w.id, workerID, jobID, err)
		w.updateStats(func(stats *WorkerStats) { stats.FailedJobs++ })
		return
	}
	w.updateStats(func(stats *WorkerStats) { stats.SuccessfulJobs++ })
}

// updateStats 更新统计信息
func (w *codecWorkerImpl) updateStats(updateFunc func(*WorkerStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	updateFunc(&w.stats)
}
