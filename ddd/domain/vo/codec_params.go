package vo

import "fmt"

const (
	MinFrameDimension = 16
	MaxFrameWidth     = 7680
	MaxFrameHeight    = 4320
	MinFPS            = 1
	MaxFPS            = 120
	MinChunkSize      = 1
	MaxChunkSize      = 10 * 1024 * 1024

	DefaultFrameWidth  = 1920
	DefaultFrameHeight = 1080
	DefaultFPS         = 30
	DefaultChunkSize   = 4096
)

// CodecParams 编解码会话参数值对象
type CodecParams struct {
	Width     int
	Height    int
	FPS       int
	ChunkSize int
}

// DefaultCodecParams 默认参数 1920x1080@30, chunk 4096
func DefaultCodecParams() CodecParams {
	return CodecParams{
		Width:     DefaultFrameWidth,
		Height:    DefaultFrameHeight,
		FPS:       DefaultFPS,
		ChunkSize: DefaultChunkSize,
	}
}

// WithDefaults 用 base 填充未设置的字段
func (p CodecParams) WithDefaults(base CodecParams) CodecParams {
	if p.Width <= 0 {
		p.Width = base.Width
	}
	if p.Height <= 0 {
		p.Height = base.Height
	}
	if p.FPS <= 0 {
		p.FPS = base.FPS
	}
	if p.ChunkSize <= 0 {
		p.ChunkSize = base.ChunkSize
	}
	return p
}

// ValidateGeometry 校验帧尺寸与分块大小
func (p CodecParams) ValidateGeometry() error {
	if p.Width < MinFrameDimension || p.Width > MaxFrameWidth {
		return fmt.Errorf("width must be between %d and %d, got %d", MinFrameDimension, MaxFrameWidth, p.Width)
	}
	if p.Height < MinFrameDimension || p.Height > MaxFrameHeight {
		return fmt.Errorf("height must be between %d and %d, got %d", MinFrameDimension, MaxFrameHeight, p.Height)
	}
	if p.ChunkSize < MinChunkSize || p.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk_size must be between %d and %d, got %d", MinChunkSize, MaxChunkSize, p.ChunkSize)
	}
	return nil
}

// Validate 校验编码参数（包含帧率）
func (p CodecParams) Validate() error {
	if err := p.ValidateGeometry(); err != nil {
		return err
	}
	if p.FPS < MinFPS || p.FPS > MaxFPS {
		return fmt.Errorf("fps must be between %d and %d, got %d", MinFPS, MaxFPS, p.FPS)
	}
	return nil
}
