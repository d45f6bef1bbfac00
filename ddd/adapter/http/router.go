package http

import (
	"github.com/gin-gonic/gin"

	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/manager"
	"f2v2f-service/pkg/middleware"
)

// NewRouter 创建 gin 引擎并挂载所有已注册的控制器
func NewRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	SetupMiddleware(engine)
	manager.RegisterAllRoutes(engine)
	return engine
}

// SetupMiddleware 设置全局中间件，CORS 需要在全局挂载才能处理预检请求
func SetupMiddleware(engine *gin.Engine) {
	engine.Use(
		gin.Recovery(),
		middleware.RequestContextMiddleware(),
		middleware.AccessLogMiddleware(),
		middleware.CORSMiddleware(),
	)
}
