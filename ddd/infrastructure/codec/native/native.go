//go:build f2v2f_native

// Package native binds the codec Engine boundary to libf2v2f through cgo.
package native

/*
#cgo LDFLAGS: -lf2v2f
#include <stdint.h>
#include <stdbool.h>
#include <stdlib.h>

typedef void (*f2v2f_progress_cb)(uint64_t, uint64_t, const char*);

int32_t f2v2f_init();
void* f2v2f_encode_create(uint32_t width, uint32_t height, uint32_t fps, size_t chunk_size, bool use_compression, int32_t compression_level);
int32_t f2v2f_encode_file(void* handle, const char* input_path, const char* output_path, uint64_t* encoded_size_out, f2v2f_progress_cb cb);
void f2v2f_encode_free(void* handle);
void* f2v2f_decode_create();
void* f2v2f_decode_create_with_params(uint32_t width, uint32_t height, size_t chunk_size, bool use_compression, uint64_t encoded_size);
int32_t f2v2f_decode_file(void* handle, const char* input_path, const char* output_path, f2v2f_progress_cb cb);
void f2v2f_decode_free(void* handle);
const char* f2v2f_version();
char* f2v2f_get_last_error();
void f2v2f_free_string(char* s);

void f2v2f_set_sink(uintptr_t h);
void f2v2f_progress_trampoline(uint64_t bytes, uint64_t frames, const char* msg);
*/
import "C"

import (
	"runtime/cgo"
	"sync"
	"unsafe"

	"f2v2f-service/ddd/infrastructure/codec"
)

const container = ".mp4"

// Options configures the native library.
type Options struct {
	UseCompression   bool
	CompressionLevel int
}

// Engine implements codec.Engine over libf2v2f. Handles are the library's
// own pointers kept in a table so Go never holds a C pointer in a uintptr.
type Engine struct {
	opts Options

	mu      sync.Mutex
	nextID  uintptr
	handles map[codec.RawHandle]unsafe.Pointer
}

var _ codec.Engine = (*Engine)(nil)

// New returns an engine backed by libf2v2f.
func New(opts Options) (codec.Engine, error) {
	return &Engine{opts: opts, handles: make(map[codec.RawHandle]unsafe.Pointer)}, nil
}

func (e *Engine) Init() int32 { return int32(C.f2v2f_init()) }

func (e *Engine) Version() string { return C.GoString(C.f2v2f_version()) }

func (e *Engine) Container() string { return container }

func (e *Engine) track(p unsafe.Pointer) codec.RawHandle {
	if p == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	h := codec.RawHandle(e.nextID)
	e.handles[h] = p
	return h
}

func (e *Engine) ptr(h codec.RawHandle) unsafe.Pointer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handles[h]
}

func (e *Engine) untrack(h codec.RawHandle) unsafe.Pointer {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.handles[h]
	delete(e.handles, h)
	return p
}

func (e *Engine) EncoderCreate(width, height, fps uint32, chunkSize uint) codec.RawHandle {
	p := C.f2v2f_encode_create(C.uint32_t(width), C.uint32_t(height), C.uint32_t(fps),
		C.size_t(chunkSize), C.bool(e.opts.UseCompression), C.int32_t(e.opts.CompressionLevel))
	return e.track(p)
}

func (e *Engine) EncoderRun(h codec.RawHandle, inputPath, outputPath string, cb codec.Callback) int32 {
	p := e.ptr(h)
	if p == nil {
		return codec.StatusInvalidHandle
	}
	cIn, cOut := C.CString(inputPath), C.CString(outputPath)
	defer C.free(unsafe.Pointer(cIn))
	defer C.free(unsafe.Pointer(cOut))

	release := bindSink(cb)
	defer release()
	var encodedSize C.uint64_t
	return int32(C.f2v2f_encode_file(p, cIn, cOut, &encodedSize, C.f2v2f_progress_cb(C.f2v2f_progress_trampoline)))
}

func (e *Engine) EncoderDestroy(h codec.RawHandle) {
	if p := e.untrack(h); p != nil {
		C.f2v2f_encode_free(p)
	}
}

func (e *Engine) DecoderCreate(width, height uint32, chunkSize uint) codec.RawHandle {
	p := C.f2v2f_decode_create_with_params(C.uint32_t(width), C.uint32_t(height),
		C.size_t(chunkSize), C.bool(e.opts.UseCompression), 0)
	return e.track(p)
}

func (e *Engine) DecoderCreateDefault() codec.RawHandle {
	return e.track(C.f2v2f_decode_create())
}

func (e *Engine) DecoderRun(h codec.RawHandle, inputPath, outputPath string, cb codec.Callback) int32 {
	p := e.ptr(h)
	if p == nil {
		return codec.StatusInvalidHandle
	}
	cIn, cOut := C.CString(inputPath), C.CString(outputPath)
	defer C.free(unsafe.Pointer(cIn))
	defer C.free(unsafe.Pointer(cOut))

	release := bindSink(cb)
	defer release()
	return int32(C.f2v2f_decode_file(p, cIn, cOut, C.f2v2f_progress_cb(C.f2v2f_progress_trampoline)))
}

func (e *Engine) DecoderDestroy(h codec.RawHandle) {
	if p := e.untrack(h); p != nil {
		C.f2v2f_decode_free(p)
	}
}

// LastError ignores h: libf2v2f keeps a single process-wide message.
func (e *Engine) LastError(codec.RawHandle) codec.StringPtr {
	return codec.StringPtr(unsafe.Pointer(C.f2v2f_get_last_error()))
}

func (e *Engine) ReadString(p codec.StringPtr) string {
	if p == 0 {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(p)))
}

func (e *Engine) FreeString(p codec.StringPtr) {
	if p != 0 {
		C.f2v2f_free_string((*C.char)(unsafe.Pointer(p)))
	}
}

// bindSink publishes cb to the trampoline for the current OS thread.
// The caller must hold the thread locked until release runs.
func bindSink(cb codec.Callback) func() {
	h := cgo.NewHandle(cb)
	C.f2v2f_set_sink(C.uintptr_t(h))
	return func() {
		C.f2v2f_set_sink(0)
		h.Delete()
	}
}

//export goProgress
func goProgress(h C.uintptr_t, bytes, frames C.uint64_t, msg *C.char) {
	cb, ok := cgo.Handle(h).Value().(codec.Callback)
	if !ok {
		return
	}
	var text string
	if msg != nil {
		text = C.GoString(msg)
	}
	cb(uint64(bytes), uint64(frames), text)
}
