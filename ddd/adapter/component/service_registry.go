package component

import (
	"fmt"
	"os"

	appsvc "f2v2f-service/ddd/application/app"
	"f2v2f-service/ddd/application/dto"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/manager"
	"f2v2f-service/pkg/registry"
)

type ServiceRegistryPlugin struct{}

func (p *ServiceRegistryPlugin) Name() string { return "serviceRegistry" }

func (p *ServiceRegistryPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := config.GetGlobalConfig()
	if deps != nil && deps.Config != nil {
		cfg = deps.Config
	}
	if cfg == nil || !cfg.ServiceRegistry.Enabled {
		return nil
	}
	codecVersion := ""
	if deps != nil {
		if v, ok := deps.CodecApp.(interface{ Version() *dto.VersionDTO }); ok {
			codecVersion = v.Version().Codec
		}
	}
	if codecVersion == "" {
		codecVersion = appsvc.DefaultCodecApp().Version().Codec
	}

	reg, err := registry.NewServiceRegistry(cfg.Etcd, cfg.ServiceRegistry, BuildInstance(cfg, codecVersion))
	if err != nil {
		panic(fmt.Sprintf("create service registry: %v", err))
	}
	return &serviceRegistryComponent{reg: reg}
}

// BuildInstance 由配置组装注册信息
func BuildInstance(cfg *config.Config, codecVersion string) registry.Instance {
	host := cfg.ServiceRegistry.RegisterHost
	if host == "" {
		host, _ = os.Hostname()
	}
	name := cfg.ServiceRegistry.ServiceName
	if name == "" {
		name = "f2v2f-service"
	}
	id := cfg.ServiceRegistry.ServiceID
	if id == "" {
		id = fmt.Sprintf("%s-%s-%d", name, host, cfg.Server.Port)
	}
	inst := registry.Instance{
		ServiceName:  name,
		ServiceID:    id,
		HTTPAddr:     fmt.Sprintf("%s:%d", host, cfg.Server.Port),
		CodecVersion: codecVersion,
	}
	if cfg.GRPCServer.Enabled {
		inst.GRPCAddr = fmt.Sprintf("%s:%d", host, cfg.GRPCServer.Port)
	}
	return inst
}

type serviceRegistryComponent struct {
	reg *registry.ServiceRegistry
}

func (c *serviceRegistryComponent) Start() error {
	if err := c.reg.Register(); err != nil {
		// 注册中心不可用不影响本地服务
		logger.Warnf("Service registration failed key=%s error=%v", c.reg.Key(), err)
	}
	return nil
}

func (c *serviceRegistryComponent) Stop() error {
	return c.reg.Deregister()
}

func (c *serviceRegistryComponent) GetName() string { return "serviceRegistry" }
