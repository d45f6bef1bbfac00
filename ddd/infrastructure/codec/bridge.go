package codec

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"f2v2f-service/ddd/domain/port"
	"f2v2f-service/ddd/domain/vo"
	"f2v2f-service/pkg/logger"
)

type sessionKind int

const (
	encoderSession sessionKind = iota + 1
	decoderSession
)

func (k sessionKind) String() string {
	if k == encoderSession {
		return "encoder"
	}
	return "decoder"
}

const (
	handleIdle int32 = iota
	handleBusy
	handleClosed
)

// Handle owns one engine session. The raw pointer never leaves this package.
type Handle struct {
	bridge *Bridge
	raw    RawHandle
	kind   sessionKind
	state  atomic.Int32
}

// Close destroys the session. A second Close returns an InvalidHandle error
// and never reaches the engine.
func (h *Handle) Close() error {
	if h == nil {
		return newError(vo.ErrorKindInvalidHandle, "nil codec handle")
	}
	if h.state.CompareAndSwap(handleIdle, handleClosed) {
		h.bridge.destroy(h)
		return nil
	}
	if h.state.Load() == handleBusy {
		return newError(vo.ErrorKindOperationInProgress, "cannot close a handle while it is running")
	}
	return newError(vo.ErrorKindInvalidHandle, "codec handle already destroyed")
}

// Bridge is the typed wrapper over an Engine.
type Bridge struct {
	engine   Engine
	initOnce sync.Once
	initErr  error

	// 创建失败的错误信息在引擎侧只有一个槽位，创建与读取必须成对串行
	createMu sync.Mutex
}

var _ port.CodecBridge = (*Bridge)(nil)

// NewBridge initialises the engine and returns a bridge over it.
func NewBridge(engine Engine) (*Bridge, error) {
	b := &Bridge{engine: engine}
	b.initOnce.Do(func() {
		b.initErr = b.guard(func() error {
			if code := engine.Init(); code != StatusOK {
				return errorFromCode(code, b.lastError(0))
			}
			return nil
		})
	})
	if b.initErr != nil {
		return nil, b.initErr
	}
	logger.Infof("codec engine initialised version=%s container=%s", engine.Version(), engine.Container())
	return b, nil
}

func (b *Bridge) Version() string   { return b.engine.Version() }
func (b *Bridge) Container() string { return b.engine.Container() }

// CreateEncoder validates params and opens an encoder session.
func (b *Bridge) CreateEncoder(params vo.CodecParams) (port.CodecSession, error) {
	if err := params.Validate(); err != nil {
		return nil, newError(vo.ErrorKindConfig, err.Error())
	}
	var raw RawHandle
	b.createMu.Lock()
	err := b.guard(func() error {
		raw = b.engine.EncoderCreate(uint32(params.Width), uint32(params.Height), uint32(params.FPS), uint(params.ChunkSize))
		if raw == 0 {
			return newError(vo.ErrorKindConfig, b.lastError(0))
		}
		return nil
	})
	b.createMu.Unlock()
	if err != nil {
		return nil, err
	}
	return &Handle{bridge: b, raw: raw, kind: encoderSession}, nil
}

// CreateDecoder opens a decoder session. All-zero params select the engine defaults.
func (b *Bridge) CreateDecoder(params vo.CodecParams) (port.CodecSession, error) {
	useDefault := params.Width == 0 && params.Height == 0 && params.ChunkSize == 0
	if !useDefault {
		if err := params.ValidateGeometry(); err != nil {
			return nil, newError(vo.ErrorKindConfig, err.Error())
		}
	}
	var raw RawHandle
	b.createMu.Lock()
	err := b.guard(func() error {
		if useDefault {
			raw = b.engine.DecoderCreateDefault()
		} else {
			raw = b.engine.DecoderCreate(uint32(params.Width), uint32(params.Height), uint(params.ChunkSize))
		}
		if raw == 0 {
			return newError(vo.ErrorKindConfig, b.lastError(0))
		}
		return nil
	})
	b.createMu.Unlock()
	if err != nil {
		return nil, err
	}
	return &Handle{bridge: b, raw: raw, kind: decoderSession}, nil
}

// Encode streams inputPath into a video at outputPath.
func (b *Bridge) Encode(session port.CodecSession, inputPath, outputPath string, sink port.ProgressSink) error {
	return b.run(session, encoderSession, inputPath, outputPath, sink)
}

// Decode restores the original bytes of the video at inputPath into outputPath.
func (b *Bridge) Decode(session port.CodecSession, inputPath, outputPath string, sink port.ProgressSink) error {
	return b.run(session, decoderSession, inputPath, outputPath, sink)
}

func (b *Bridge) run(session port.CodecSession, kind sessionKind, inputPath, outputPath string, sink port.ProgressSink) error {
	h, ok := session.(*Handle)
	if !ok || h == nil || h.bridge != b {
		return newError(vo.ErrorKindInvalidHandle, "handle was not created by this bridge")
	}
	if h.kind != kind {
		return newError(vo.ErrorKindInvalidHandle, fmt.Sprintf("%s handle used for %s", h.kind, kind))
	}
	if !h.state.CompareAndSwap(handleIdle, handleBusy) {
		if h.state.Load() == handleBusy {
			return newError(vo.ErrorKindOperationInProgress, "")
		}
		return newError(vo.ErrorKindInvalidHandle, "codec handle already destroyed")
	}
	defer h.state.Store(handleIdle)

	// The engine invokes the callback on the calling thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cb := monotonic(sink)
	return b.guard(func() error {
		var code int32
		if kind == encoderSession {
			code = b.engine.EncoderRun(h.raw, inputPath, outputPath, cb)
		} else {
			code = b.engine.DecoderRun(h.raw, inputPath, outputPath, cb)
		}
		if code != StatusOK {
			return errorFromCode(code, b.lastError(h.raw))
		}
		return nil
	})
}

func (b *Bridge) destroy(h *Handle) {
	_ = b.guard(func() error {
		if h.kind == encoderSession {
			b.engine.EncoderDestroy(h.raw)
		} else {
			b.engine.DecoderDestroy(h.raw)
		}
		return nil
	})
}

// lastError copies the engine's message and releases the engine string.
func (b *Bridge) lastError(h RawHandle) string {
	s := takeString(b.engine, b.engine.LastError(h))
	defer s.Release()
	return s.String()
}

// guard converts an engine panic into an Unknown error.
func (b *Bridge) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("codec engine panic recovered: %v", r)
			err = newError(vo.ErrorKindUnknown, fmt.Sprintf("codec engine fault: %v", r))
		}
	}()
	return fn()
}

// monotonic forwards progress to sink, never letting values go backwards.
func monotonic(sink port.ProgressSink) Callback {
	if sink == nil {
		return func(uint64, uint64, string) {}
	}
	var lastBytes, lastFrames uint64
	return func(bytesTotal, framesTotal uint64, message string) {
		if bytesTotal < lastBytes {
			bytesTotal = lastBytes
		}
		if framesTotal < lastFrames {
			framesTotal = lastFrames
		}
		lastBytes, lastFrames = bytesTotal, framesTotal
		sink(bytesTotal, framesTotal, message)
	}
}
