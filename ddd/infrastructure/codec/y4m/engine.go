// Package y4m is an in-process codec engine that stores file bytes in the luma
// planes of an uncompressed YUV4MPEG2 video.
package y4m

import (
	"fmt"
	"sync"

	"f2v2f-service/ddd/infrastructure/codec"
)

const (
	engineVersion = "f2v2f-y4m/1"
	container     = ".y4m"

	defaultWidth     = 1920
	defaultHeight    = 1080
	defaultFPS       = 30
	defaultChunkSize = 4096
)

// Options configures the engine.
type Options struct {
	Compression string
}

type session struct {
	encoder   bool
	g         geometry
	chunkSize int
	lastErr   string
}

// Engine implements codec.Engine. Handles and strings are table entries so
// the boundary behaves like a native library.
type Engine struct {
	compression CompressionTag

	mu        sync.Mutex
	nextID    uintptr
	sessions  map[codec.RawHandle]*session
	strs      map[codec.StringPtr]string
	createErr string
}

var _ codec.Engine = (*Engine)(nil)

// New returns an engine using the given chunk compression.
func New(opts Options) (*Engine, error) {
	tag, err := ParseCompressionTag(opts.Compression)
	if err != nil {
		return nil, err
	}
	return &Engine{
		compression: tag,
		sessions:    make(map[codec.RawHandle]*session),
		strs:        make(map[codec.StringPtr]string),
	}, nil
}

func (e *Engine) Init() int32       { return codec.StatusOK }
func (e *Engine) Version() string   { return engineVersion }
func (e *Engine) Container() string { return container }

// checkGeometry rejects frames that cannot hold a full chunk record.
func checkGeometry(width, height int, chunkSize int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("frame size %dx%d must be positive", width, height)
	}
	if width%2 != 0 || height%2 != 0 {
		return fmt.Errorf("frame size %dx%d must be even for 4:2:0 output", width, height)
	}
	if chunkSize <= 0 {
		return fmt.Errorf("chunk size %d must be positive", chunkSize)
	}
	if capacity := width * height; chunkHeaderSize+chunkSize > capacity {
		return fmt.Errorf("chunk size %d does not fit a %dx%d frame (capacity %d bytes)",
			chunkSize, width, height, capacity-chunkHeaderSize)
	}
	return nil
}

func (e *Engine) register(s *session) codec.RawHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	h := codec.RawHandle(e.nextID)
	e.sessions[h] = s
	return h
}

func (e *Engine) failCreate(err error) codec.RawHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.createErr = err.Error()
	return 0
}

func (e *Engine) EncoderCreate(width, height, fps uint32, chunkSize uint) codec.RawHandle {
	if fps == 0 {
		return e.failCreate(fmt.Errorf("fps must be positive"))
	}
	if err := checkGeometry(int(width), int(height), int(chunkSize)); err != nil {
		return e.failCreate(err)
	}
	return e.register(&session{
		encoder:   true,
		g:         geometry{width: int(width), height: int(height), fps: int(fps)},
		chunkSize: int(chunkSize),
	})
}

func (e *Engine) DecoderCreate(width, height uint32, chunkSize uint) codec.RawHandle {
	if err := checkGeometry(int(width), int(height), int(chunkSize)); err != nil {
		return e.failCreate(err)
	}
	return e.register(&session{
		g:         geometry{width: int(width), height: int(height)},
		chunkSize: int(chunkSize),
	})
}

func (e *Engine) DecoderCreateDefault() codec.RawHandle {
	return e.DecoderCreate(defaultWidth, defaultHeight, defaultChunkSize)
}

func (e *Engine) lookup(h codec.RawHandle, encoder bool) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[h]
	if !ok || s.encoder != encoder {
		return nil
	}
	return s
}

func (e *Engine) destroy(h codec.RawHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, h)
}

func (e *Engine) EncoderDestroy(h codec.RawHandle) { e.destroy(h) }
func (e *Engine) DecoderDestroy(h codec.RawHandle) { e.destroy(h) }

func (e *Engine) EncoderRun(h codec.RawHandle, inputPath, outputPath string, cb codec.Callback) int32 {
	s := e.lookup(h, true)
	if s == nil {
		return codec.StatusInvalidHandle
	}
	return e.finish(s, encodeFile(s, e.compression, inputPath, outputPath, cb))
}

func (e *Engine) DecoderRun(h codec.RawHandle, inputPath, outputPath string, cb codec.Callback) int32 {
	s := e.lookup(h, false)
	if s == nil {
		return codec.StatusInvalidHandle
	}
	return e.finish(s, decodeFile(s, inputPath, outputPath, cb))
}

func (e *Engine) finish(s *session, err *runError) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		s.lastErr = ""
		return codec.StatusOK
	}
	s.lastErr = err.msg
	return err.code
}

func (e *Engine) LastError(h codec.RawHandle) codec.StringPtr {
	e.mu.Lock()
	defer e.mu.Unlock()
	msg := e.createErr
	if h != 0 {
		s, ok := e.sessions[h]
		if !ok {
			return 0
		}
		msg = s.lastErr
	}
	if msg == "" {
		return 0
	}
	e.nextID++
	p := codec.StringPtr(e.nextID)
	e.strs[p] = msg
	return p
}

func (e *Engine) ReadString(p codec.StringPtr) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.strs[p]
}

func (e *Engine) FreeString(p codec.StringPtr) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.strs, p)
}

// LiveStrings reports strings handed out and not yet freed.
func (e *Engine) LiveStrings() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.strs)
}

// LiveSessions reports sessions created and not yet destroyed.
func (e *Engine) LiveSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

type runError struct {
	code int32
	msg  string
}

func fail(code int32, format string, args ...interface{}) *runError {
	return &runError{code: code, msg: fmt.Sprintf(format, args...)}
}
