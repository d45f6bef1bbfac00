package http

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"f2v2f-service/ddd/application/app"
	"f2v2f-service/ddd/application/cqe"
	"f2v2f-service/ddd/domain/vo"
	"f2v2f-service/pkg/assert"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/errno"
	"f2v2f-service/pkg/manager"
	"f2v2f-service/pkg/middleware"
	"f2v2f-service/pkg/restapi"
)

var (
	codecControllerOnce      sync.Once
	singletonCodecController CodecController
)

func init() {
	manager.RegisterControllerPlugin(&CodecControllerPlugin{})
}

type CodecControllerPlugin struct {
}

func (p *CodecControllerPlugin) Name() string {
	return "codecControllerPlugin"
}

func (p *CodecControllerPlugin) MustCreateController() manager.Controller {
	assert.NotCircular()
	codecControllerOnce.Do(func() {
		cfg := config.GetGlobalConfig()
		if cfg == nil {
			cfg = config.Default()
		}
		singletonCodecController = NewCodecController(app.DefaultCodecApp(), cfg)
	})
	assert.NotNil(singletonCodecController)
	return singletonCodecController
}

type CodecController interface {
	manager.Controller
}

type codecControllerImpl struct {
	codecApp       app.CodecApp
	maxUploadBytes int64
	jwtSecret      string
	jwtIssuer      string
}

// NewCodecController 创建编解码控制器
func NewCodecController(codecApp app.CodecApp, cfg *config.Config) CodecController {
	return &codecControllerImpl{
		codecApp:       codecApp,
		maxUploadBytes: cfg.Server.MaxUploadBytes,
		jwtSecret:      cfg.JWT.Secret,
		jwtIssuer:      cfg.JWT.Issuer,
	}
}

func (c *codecControllerImpl) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", c.Health)

	api := r.Group("/api", middleware.JWTAuthMiddleware(c.jwtSecret, c.jwtIssuer))
	{
		api.GET("/version", c.Version)
		api.POST("/encode", c.submit(vo.OperationEncode))
		api.POST("/decode", c.submit(vo.OperationDecode))
		api.GET("/status/:job_id", c.GetJobStatus)
		api.GET("/jobs", c.ListJobs)
		api.GET("/download/:filename", c.Download)
		api.GET("/files", c.ListFiles)
		api.DELETE("/files/:id", c.DeleteFile)
		api.POST("/cleanup", c.Cleanup)
	}
}

// Health 健康检查
func (c *codecControllerImpl) Health(ctx *gin.Context) {
	v := c.codecApp.Version()
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": v.Service,
		"version": v.Codec,
	})
}

func (c *codecControllerImpl) Version(ctx *gin.Context) {
	restapi.Success(ctx, c.codecApp.Version())
}

// submit 处理 multipart 上传，文件字段为 file
func (c *codecControllerImpl) submit(op vo.Operation) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c.maxUploadBytes > 0 {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes)
		}
		var req cqe.SubmitJobReq
		if err := ctx.ShouldBind(&req); err != nil {
			restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
			return
		}
		fh, err := ctx.FormFile("file")
		if err != nil {
			restapi.Failed(ctx, errno.NewBizError(errno.ErrMissingFile, err))
			return
		}
		file, err := fh.Open()
		if err != nil {
			restapi.Failed(ctx, errno.NewBizError(errno.ErrUploadError, err))
			return
		}
		defer file.Close()

		req.Operation = op.String()
		req.FileName = fh.Filename
		req.Content = file
		resp, err := c.codecApp.SubmitJob(ctx.Request.Context(), &req)
		if err != nil {
			if resp != nil {
				restapi.FailedWithData(ctx, err, resp)
				return
			}
			restapi.Failed(ctx, err)
			return
		}
		restapi.SuccessWithStatus(ctx, http.StatusAccepted, resp)
	}
}

// GetJobStatus 查询任务状态
func (c *codecControllerImpl) GetJobStatus(ctx *gin.Context) {
	jobID := ctx.Param("job_id")
	if jobID == "" {
		restapi.Failed(ctx, errno.ErrJobIDRequired)
		return
	}
	resp, err := c.codecApp.GetJobStatus(ctx.Request.Context(), jobID)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

func (c *codecControllerImpl) ListJobs(ctx *gin.Context) {
	resp, err := c.codecApp.ListJobs(ctx.Request.Context())
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// Download 以附件形式返回产物
func (c *codecControllerImpl) Download(ctx *gin.Context) {
	name := ctx.Param("filename")
	f, size, err := c.codecApp.OpenArtifact(name)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	defer f.Close()

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	ctx.DataFromReader(http.StatusOK, size, "application/octet-stream", f, nil)
}

func (c *codecControllerImpl) ListFiles(ctx *gin.Context) {
	resp, err := c.codecApp.ListFiles(ctx.Request.Context())
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// DeleteFile 删除登记记录及产物
func (c *codecControllerImpl) DeleteFile(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.codecApp.DeleteFile(ctx.Request.Context(), id); err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, gin.H{"id": id, "deleted": true})
}

// Cleanup 手动触发过期产物清理
func (c *codecControllerImpl) Cleanup(ctx *gin.Context) {
	var req cqe.CleanupReq
	if err := ctx.ShouldBind(&req); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	resp, err := c.codecApp.Cleanup(ctx.Request.Context(), &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}
