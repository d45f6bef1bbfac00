package config

import "sync"

var (
	globalMu     sync.RWMutex
	globalConfig *Config
)

// SetGlobalConfig 设置全局配置
func SetGlobalConfig(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig 获取全局配置，未设置时返回 nil
func GetGlobalConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}
