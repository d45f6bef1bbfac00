package component

import (
	"context"
	"sync"
	"time"

	appsvc "f2v2f-service/ddd/application/app"
	"f2v2f-service/ddd/application/cqe"
	"f2v2f-service/ddd/application/dto"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/manager"
	"f2v2f-service/pkg/task"
)

const defaultSweepInterval = time.Hour

// Cleaner 删除过期产物
type Cleaner interface {
	Cleanup(ctx context.Context, req *cqe.CleanupReq) (*dto.CleanupDTO, error)
}

type RetentionSweeperPlugin struct{}

func (p *RetentionSweeperPlugin) Name() string { return "retentionSweeper" }

func (p *RetentionSweeperPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := config.GetGlobalConfig()
	if deps != nil && deps.Config != nil {
		cfg = deps.Config
	}
	if cfg == nil || !cfg.Retention.Enabled {
		return nil
	}
	var cleaner Cleaner
	if deps != nil {
		if v, ok := deps.CodecApp.(Cleaner); ok {
			cleaner = v
		}
	}
	if cleaner == nil {
		cleaner = appsvc.DefaultCodecApp()
	}
	return NewRetentionSweeper(cleaner, cfg.Retention.Interval)
}

// RetentionSweeper 按固定间隔清理过期产物，保留时长使用配置值
type RetentionSweeper struct {
	cleaner  Cleaner
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRetentionSweeper(cleaner Cleaner, interval time.Duration) *RetentionSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &RetentionSweeper{cleaner: cleaner, interval: interval}
}

// Start 注册后台任务，由 task 管理器统一启动
func (s *RetentionSweeper) Start() error {
	return task.Register(&task.Adapter{TaskName: s.GetName(), StartFunc: s.run, StopFunc: s.Stop})
}

func (s *RetentionSweeper) run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		logger.Infof("Retention sweeper started interval=%s", s.interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepOnce(ctx)
			}
		}
	}(s.done)
	return nil
}

func (s *RetentionSweeper) sweepOnce(ctx context.Context) {
	resp, err := s.cleaner.Cleanup(ctx, &cqe.CleanupReq{})
	if err != nil {
		logger.Warnf("Retention sweep failed error=%v", err)
		return
	}
	if resp.DeletedFiles > 0 {
		logger.Info("Retention sweep finished", map[string]interface{}{
			"deleted_files": resp.DeletedFiles,
			"max_age":       resp.MaxAge,
		})
	}
}

// Stop 幂等，等待正在进行的清理结束
func (s *RetentionSweeper) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (s *RetentionSweeper) GetName() string { return "retentionSweeper" }
