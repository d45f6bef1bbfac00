package task

import (
	"context"
	"fmt"
	"sync"

	"f2v2f-service/pkg/logger"
)

// BackgroundTask represents a long-running background process (worker pool, consumer, sweeper).
type BackgroundTask interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

type manager struct {
	tasks   []BackgroundTask
	started []BackgroundTask
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

var defaultManager = &manager{}

// Register adds a background task; call during assembly before StartAll.
// Tasks registered after StartAll are started immediately.
func Register(task BackgroundTask) error {
	if task == nil {
		return nil
	}
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.tasks = append(defaultManager.tasks, task)
	if defaultManager.cancel == nil {
		return nil
	}
	return defaultManager.startLocked(defaultManager.ctx, task)
}

func (m *manager) startLocked(ctx context.Context, t BackgroundTask) error {
	if err := t.Start(ctx); err != nil {
		return fmt.Errorf("start background task %s: %w", t.Name(), err)
	}
	m.started = append(m.started, t)
	logger.Infof("Background task started name=%s", t.Name())
	return nil
}

// StartAll starts all registered tasks once. On failure the tasks already
// started keep running until StopAll.
func StartAll(ctx context.Context) error {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	if defaultManager.cancel != nil {
		return nil
	}
	defaultManager.ctx, defaultManager.cancel = context.WithCancel(ctx)
	for _, t := range defaultManager.tasks {
		if err := defaultManager.startLocked(defaultManager.ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// StopAll stops started tasks in reverse order.
func StopAll() {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	if defaultManager.cancel != nil {
		defaultManager.cancel()
	}
	for i := len(defaultManager.started) - 1; i >= 0; i-- {
		t := defaultManager.started[i]
		if err := t.Stop(); err != nil {
			logger.Warnf("Background task stop failed name=%s error=%v", t.Name(), err)
			continue
		}
		logger.Infof("Background task stopped name=%s", t.Name())
	}
	defaultManager.started = nil
	defaultManager.ctx, defaultManager.cancel = nil, nil
}

// Adapter adapts Start/Stop functions to BackgroundTask.
type Adapter struct {
	TaskName  string
	StartFunc func(ctx context.Context) error
	StopFunc  func() error
}

func (a *Adapter) Name() string                    { return a.TaskName }
func (a *Adapter) Start(ctx context.Context) error { return a.StartFunc(ctx) }
func (a *Adapter) Stop() error {
	if a.StopFunc == nil {
		return nil
	}
	return a.StopFunc()
}
