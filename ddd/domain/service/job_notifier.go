package service

import (
	"context"
	"sync"
	"time"

	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/port"
	"f2v2f-service/pkg/logger"
)

const (
	notifyBuffer  = 1024
	notifyTimeout = 3 * time.Second
)

// jobNotifier 在独立 goroutine 中按顺序把快照交给观察者，
// 编解码线程上的进度回调因此不会被网络调用阻塞。
type jobNotifier struct {
	observers []port.JobObserver

	mu     sync.RWMutex
	closed bool
	ch     chan entity.JobSnapshot
	done   chan struct{}
}

func newJobNotifier(observers []port.JobObserver) *jobNotifier {
	n := &jobNotifier{observers: observers}
	if len(observers) == 0 {
		return n
	}
	n.ch = make(chan entity.JobSnapshot, notifyBuffer)
	n.done = make(chan struct{})
	go n.loop()
	return n
}

// publish 进度快照在缓冲满时丢弃，状态变化快照会等待
func (n *jobNotifier) publish(s entity.JobSnapshot, droppable bool) {
	if n.ch == nil {
		return
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	if droppable {
		select {
		case n.ch <- s:
		default:
		}
		return
	}
	n.ch <- s
}

func (n *jobNotifier) loop() {
	defer close(n.done)
	for s := range n.ch {
		for _, o := range n.observers {
			n.deliver(o, s)
		}
	}
}

func (n *jobNotifier) deliver(o port.JobObserver, s entity.JobSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("job observer panic recovered job_id=%s: %v", s.ID, r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	o.OnJobUpdate(ctx, s)
}

// close 停止接收并等待已排队的快照投递完成
func (n *jobNotifier) close() {
	if n.ch == nil {
		return
	}
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.ch)
	n.mu.Unlock()
	<-n.done
}
