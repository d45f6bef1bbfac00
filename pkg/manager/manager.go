// Package manager assembles resources, components and controllers that
// register themselves as plugins from init functions.
package manager

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
)

// Resource 外部资源（数据库、缓存、消息队列、对象存储）
type Resource interface {
	MustOpen()
	Close()
}

// ResourcePlugin 资源插件
type ResourcePlugin interface {
	Name() string
	MustCreateResource() Resource
}

// Component 随应用启动和停止的组件
type Component interface {
	Start() error
	Stop() error
	GetName() string
}

// ComponentPlugin 组件插件
type ComponentPlugin interface {
	Name() string
	MustCreateComponent(deps *Dependencies) Component
}

// Controller HTTP 控制器
type Controller interface {
	RegisterRoutes(r gin.IRouter)
}

// ControllerPlugin 控制器插件
type ControllerPlugin interface {
	Name() string
	MustCreateController() Controller
}

// Dependencies 组件创建时可用的依赖
type Dependencies struct {
	DB     *gorm.DB
	Config *config.Config
	// CodecApp 应用服务，组件按需断言为自己需要的接口
	CodecApp interface{}
}

type registry struct {
	mu                sync.Mutex
	resourcePlugins   []ResourcePlugin
	componentPlugins  []ComponentPlugin
	controllerPlugins []ControllerPlugin
	resources         []namedResource
	components        []Component
}

type namedResource struct {
	name     string
	resource Resource
}

var defaultRegistry = &registry{}

// RegisterResourcePlugin 注册资源插件，重复名称会 panic
func RegisterResourcePlugin(p ResourcePlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, existing := range defaultRegistry.resourcePlugins {
		if existing.Name() == p.Name() {
			panic(fmt.Sprintf("resource plugin %s registered twice", p.Name()))
		}
	}
	defaultRegistry.resourcePlugins = append(defaultRegistry.resourcePlugins, p)
}

// RegisterComponentPlugin 注册组件插件
func RegisterComponentPlugin(p ComponentPlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, existing := range defaultRegistry.componentPlugins {
		if existing.Name() == p.Name() {
			panic(fmt.Sprintf("component plugin %s registered twice", p.Name()))
		}
	}
	defaultRegistry.componentPlugins = append(defaultRegistry.componentPlugins, p)
}

// RegisterControllerPlugin 注册控制器插件
func RegisterControllerPlugin(p ControllerPlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, existing := range defaultRegistry.controllerPlugins {
		if existing.Name() == p.Name() {
			panic(fmt.Sprintf("controller plugin %s registered twice", p.Name()))
		}
	}
	defaultRegistry.controllerPlugins = append(defaultRegistry.controllerPlugins, p)
}

// MustInitResources 按注册顺序打开所有资源
func MustInitResources() {
	defaultRegistry.mu.Lock()
	plugins := append([]ResourcePlugin(nil), defaultRegistry.resourcePlugins...)
	defaultRegistry.mu.Unlock()

	for _, p := range plugins {
		res := p.MustCreateResource()
		res.MustOpen()
		defaultRegistry.mu.Lock()
		defaultRegistry.resources = append(defaultRegistry.resources, namedResource{name: p.Name(), resource: res})
		defaultRegistry.mu.Unlock()
		logger.Infof("Resource opened name=%s", p.Name())
	}
}

// CloseResources 逆序关闭已打开的资源
func CloseResources() {
	defaultRegistry.mu.Lock()
	resources := defaultRegistry.resources
	defaultRegistry.resources = nil
	defaultRegistry.mu.Unlock()

	for i := len(resources) - 1; i >= 0; i-- {
		resources[i].resource.Close()
		logger.Infof("Resource closed name=%s", resources[i].name)
	}
}

// MustInitComponents 创建并启动所有组件
func MustInitComponents(deps *Dependencies) {
	defaultRegistry.mu.Lock()
	plugins := append([]ComponentPlugin(nil), defaultRegistry.componentPlugins...)
	defaultRegistry.mu.Unlock()

	for _, p := range plugins {
		c := p.MustCreateComponent(deps)
		if c == nil {
			logger.Infof("Component skipped name=%s", p.Name())
			continue
		}
		if err := c.Start(); err != nil {
			panic(fmt.Sprintf("start component %s: %v", p.Name(), err))
		}
		defaultRegistry.mu.Lock()
		defaultRegistry.components = append(defaultRegistry.components, c)
		defaultRegistry.mu.Unlock()
		logger.Infof("Component started name=%s", c.GetName())
	}
}

// RegisterAllRoutes 把所有控制器的路由挂到 router
func RegisterAllRoutes(router gin.IRouter) {
	defaultRegistry.mu.Lock()
	plugins := append([]ControllerPlugin(nil), defaultRegistry.controllerPlugins...)
	defaultRegistry.mu.Unlock()

	for _, p := range plugins {
		p.MustCreateController().RegisterRoutes(router)
		logger.Debug("Controller registered", map[string]interface{}{"name": p.Name()})
	}
}

// Shutdown 逆序停止所有组件
func Shutdown() {
	defaultRegistry.mu.Lock()
	components := defaultRegistry.components
	defaultRegistry.components = nil
	defaultRegistry.mu.Unlock()

	for i := len(components) - 1; i >= 0; i-- {
		if err := components[i].Stop(); err != nil {
			logger.Warnf("Component stop failed name=%s error=%v", components[i].GetName(), err)
		}
	}
}
