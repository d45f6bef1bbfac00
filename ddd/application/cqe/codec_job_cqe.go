package cqe

import (
	"io"

	"f2v2f-service/ddd/domain/vo"
	"f2v2f-service/pkg/errno"
)

// SubmitJobReq 提交编解码任务请求
type SubmitJobReq struct {
	Operation string `form:"-" json:"operation"`
	// FileName 上传文件名
	FileName string `form:"-" json:"file_name"`
	// Content 上传内容，由调用方负责关闭
	Content io.Reader `form:"-" json:"-"`
	// ObjectKey 来自对象存储的输入，与 Content 二选一
	ObjectKey string `form:"-" json:"object_key"`

	Width      int    `form:"width" json:"width"`
	Height     int    `form:"height" json:"height"`
	FPS        int    `form:"fps" json:"fps"`
	ChunkSize  int    `form:"chunk_size" json:"chunk_size"`
	OutputName string `form:"output_name" json:"output_name"`
}

// Validate 校验请求
func (req *SubmitJobReq) Validate() error {
	if _, ok := vo.ParseOperation(req.Operation); !ok {
		return errno.ErrInvalidOperation
	}
	if req.Content == nil && req.ObjectKey == "" {
		return errno.ErrMissingFile
	}
	if req.FileName == "" {
		return errno.ErrFileNameIllegal
	}
	if req.Width < 0 || req.Height < 0 || req.FPS < 0 || req.ChunkSize < 0 {
		return errno.ErrCodecParamsRange
	}
	return nil
}

// Params 未填写的字段为 0，由任务管理补默认值
func (req *SubmitJobReq) Params() vo.CodecParams {
	return vo.CodecParams{
		Width:     req.Width,
		Height:    req.Height,
		FPS:       req.FPS,
		ChunkSize: req.ChunkSize,
	}
}

// CleanupReq 清理过期产物请求
type CleanupReq struct {
	// MaxAge 形如 "24h"，为空时使用配置值
	MaxAge string `form:"max_age" json:"max_age"`
}
