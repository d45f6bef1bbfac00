package observability

import (
	"os"

	"github.com/grafana/pyroscope-go"

	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
)

// Profiler 持续剖析句柄，未启用时 Stop 为空操作
type Profiler struct {
	p *pyroscope.Profiler
}

// StartProfiling 启动 pyroscope 持续剖析。
// 未启用或启动失败时只记录日志，不影响服务启动。
func StartProfiling(appName string, cfg config.ProfilingConfig) *Profiler {
	if !cfg.Enabled || cfg.ServerAddress == "" {
		return &Profiler{}
	}
	hostname, _ := os.Hostname()
	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   cfg.ServerAddress,
		Tags:            map[string]string{"hostname": hostname},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		logger.Warnf("Pyroscope profiling disabled server=%s error=%v", cfg.ServerAddress, err)
		return &Profiler{}
	}
	logger.Infof("Pyroscope profiling started app=%s server=%s", appName, cfg.ServerAddress)
	return &Profiler{p: p}
}

// Stop 停止剖析并刷新剩余数据
func (p *Profiler) Stop() {
	if p == nil || p.p == nil {
		return
	}
	if err := p.p.Stop(); err != nil {
		logger.Warnf("Pyroscope stop failed error=%v", err)
	}
}
