package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"f2v2f-service/pkg/errno"
	"f2v2f-service/pkg/logger"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 返回成功响应
func Success(ctx *gin.Context, data interface{}) {
	SuccessWithStatus(ctx, http.StatusOK, data)
}

// SuccessWithStatus writes a success envelope with an explicit HTTP status.
func SuccessWithStatus(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, Response{Code: errno.OK.Code, Message: errno.OK.Message, Data: data})
}

// Failed 返回失败响应，HTTP 状态码由错误码推导
func Failed(ctx *gin.Context, err error) {
	FailedWithData(ctx, err, nil)
}

// FailedWithData 失败响应附带数据，例如已创建但被拒绝的任务
func FailedWithData(ctx *gin.Context, err error, data interface{}) {
	no := errno.Decode(err)
	status := HTTPStatus(no)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", map[string]interface{}{
			"path":       ctx.FullPath(),
			"request_id": ctx.GetString("request_id"),
			"error":      err.Error(),
		})
	}
	msg := no.Message
	if status < http.StatusInternalServerError && err != nil {
		msg = err.Error()
	}
	ctx.AbortWithStatusJSON(status, Response{Code: no.Code, Message: msg, Data: data})
}

// HTTPStatus maps an error code to its HTTP status.
func HTTPStatus(no *errno.Errno) int {
	switch no {
	case errno.ErrJobNotFound, errno.ErrFileRecordNotFound, errno.ErrArtifactNotFound, errno.ErrNotFound:
		return http.StatusNotFound
	case errno.ErrQueueFull, errno.ErrSchedulerStopped:
		return http.StatusServiceUnavailable
	case errno.ErrUnauthorized:
		return http.StatusUnauthorized
	}
	switch {
	case no.Code >= 400 && no.Code < 500:
		return no.Code
	case no.Code >= 20000:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
