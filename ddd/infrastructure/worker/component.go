package worker

import (
	"fmt"
	"os"
	"time"

	"f2v2f-service/ddd/infrastructure/queue"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/manager"
	"f2v2f-service/pkg/task"
)

func init() {
	manager.RegisterComponentPlugin(&CodecWorkerComponentPlugin{})
}

// CodecWorkerComponentPlugin 负责启动编解码 Worker
type CodecWorkerComponentPlugin struct{}

func (p *CodecWorkerComponentPlugin) Name() string {
	return "codecWorkerComponent"
}

func (p *CodecWorkerComponentPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	var executor JobExecutor
	if deps != nil {
		if v, ok := deps.CodecApp.(JobExecutor); ok {
			executor = v
		}
	}
	if executor == nil {
		panic("codec worker requires an application service implementing JobExecutor")
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}

	workerCount := 1
	var grace time.Duration
	if cfg != nil {
		if cfg.Jobs.MaxConcurrent > 0 {
			workerCount = cfg.Jobs.MaxConcurrent
		}
		grace = cfg.Jobs.ShutdownGracePeriod
	}
	hostname, _ := os.Hostname()
	workerID := fmt.Sprintf("codec-worker-%s", hostname)

	return &codecWorkerComponent{
		name:   "codecWorker",
		worker: NewCodecWorker(workerID, queue.DefaultJobQueue(), executor, workerCount, grace),
	}
}

type codecWorkerComponent struct {
	name   string
	worker CodecWorker
}

func (c *codecWorkerComponent) Start() error {
	if c.worker == nil {
		return fmt.Errorf("codec worker not initialized")
	}
	// 注册后台任务，让应用启动时统一管理
	if err := task.Register(&task.Adapter{TaskName: c.name, StartFunc: c.worker.Start, StopFunc: c.worker.Stop}); err != nil {
		return err
	}
	logger.Infof("Codec worker component registered background task name=%s", c.name)
	return nil
}

func (c *codecWorkerComponent) Stop() error {
	// 后台任务由 task 管理器停止，这里保持幂等
	return c.worker.Stop()
}

func (c *codecWorkerComponent) GetName() string {
	return c.name
}
