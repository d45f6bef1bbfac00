package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"f2v2f-service/ddd/domain/port"
	"f2v2f-service/pkg/errno"
)

// ErrQueueClosed 队列已关闭
var ErrQueueClosed = errors.New("queue is closed")

// JobQueue 任务队列接口，元素为任务ID
type JobQueue interface {
	port.JobScheduler

	// Dequeue 出队任务（阻塞），队列关闭后返回 ErrQueueClosed
	Dequeue(ctx context.Context) (string, error)

	// Size 获取队列大小
	Size() int

	// Close 关闭队列，已入队但未出队的任务ID通过返回值交还调用方
	Close() []string

	// IsClosed 检查队列是否已关闭
	IsClosed() bool

	// GetMetrics 获取队列指标
	GetMetrics() QueueMetrics
}

// MemoryJobQueue 基于有界channel的任务队列，满时拒绝入队而不是阻塞提交方
type MemoryJobQueue struct {
	queue    chan string
	done     chan struct{}
	closed   bool
	mu       sync.RWMutex
	enqueued atomic.Uint64
	dequeued atomic.Uint64
	rejected atomic.Uint64
	capacity int
}

// QueueMetrics 队列指标
type QueueMetrics struct {
	EnqueueCount  uint64 `json:"enqueue_count"`
	DequeueCount  uint64 `json:"dequeue_count"`
	RejectedCount uint64 `json:"rejected_count"`
	MaxSize       int    `json:"max_size"`
	CurrentSize   int    `json:"current_size"`
}

var _ JobQueue = (*MemoryJobQueue)(nil)

// NewMemoryJobQueue 创建内存任务队列
func NewMemoryJobQueue(capacity int) *MemoryJobQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &MemoryJobQueue{
		queue:    make(chan string, capacity),
		done:     make(chan struct{}),
		capacity: capacity,
	}
}

// Schedule 入队任务ID，队列满时返回 errno.ErrQueueFull
func (q *MemoryJobQueue) Schedule(ctx context.Context, jobID string) error {
	if jobID == "" {
		return errno.NewBizError(errno.ErrJobIDRequired, nil)
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errno.NewBizError(errno.ErrSchedulerStopped, ErrQueueClosed)
	}

	select {
	case q.queue <- jobID:
		q.enqueued.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		q.rejected.Add(1)
		return errno.NewBizError(errno.ErrQueueFull, nil)
	}
}

// Dequeue 出队任务（阻塞）
func (q *MemoryJobQueue) Dequeue(ctx context.Context) (string, error) {
	select {
	case <-q.done:
		return "", ErrQueueClosed
	default:
	}
	select {
	case id := <-q.queue:
		q.dequeued.Add(1)
		return id, nil
	case <-q.done:
		return "", ErrQueueClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Size 获取队列大小
func (q *MemoryJobQueue) Size() int {
	return len(q.queue)
}

// Close 关闭队列并取出剩余任务ID
func (q *MemoryJobQueue) Close() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)

	var rest []string
	for {
		select {
		case id := <-q.queue:
			rest = append(rest, id)
		default:
			return rest
		}
	}
}

// IsClosed 检查队列是否已关闭
func (q *MemoryJobQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// GetMetrics 获取队列指标
func (q *MemoryJobQueue) GetMetrics() QueueMetrics {
	return QueueMetrics{
		EnqueueCount:  q.enqueued.Load(),
		DequeueCount:  q.dequeued.Load(),
		RejectedCount: q.rejected.Load(),
		MaxSize:       q.capacity,
		CurrentSize:   q.Size(),
	}
}
