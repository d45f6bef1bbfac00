package codec

// RawHandle is an engine session pointer. Zero means the engine refused to create a session.
type RawHandle uintptr

// StringPtr is an engine-allocated string. Zero means no message.
type StringPtr uintptr

// Callback receives cumulative progress from inside EncoderRun/DecoderRun.
type Callback func(bytesTotal, framesTotal uint64, message string)

// Engine is the native codec boundary. Implementations follow C calling
// conventions: status codes instead of errors, raw handles with manual
// lifetime, and strings the caller must hand back through FreeString.
type Engine interface {
	Init() int32
	Version() string
	// Container is the file extension of encoded artifacts, including the dot.
	Container() string

	EncoderCreate(width, height, fps uint32, chunkSize uint) RawHandle
	EncoderRun(h RawHandle, inputPath, outputPath string, cb Callback) int32
	EncoderDestroy(h RawHandle)

	DecoderCreate(width, height uint32, chunkSize uint) RawHandle
	DecoderCreateDefault() RawHandle
	DecoderRun(h RawHandle, inputPath, outputPath string, cb Callback) int32
	DecoderDestroy(h RawHandle)

	// LastError returns the message for the most recent failure of h, or of
	// the most recent failed create when h is zero.
	LastError(h RawHandle) StringPtr
	ReadString(p StringPtr) string
	FreeString(p StringPtr)
}

// Status codes returned across the engine boundary.
const (
	StatusOK                  int32 = 0
	StatusInvalidInput        int32 = 1
	StatusIOError             int32 = 2
	StatusEncodingError       int32 = 3
	StatusDecodingError       int32 = 4
	StatusConfigError         int32 = 5
	StatusOperationInProgress int32 = 6
	StatusInvalidHandle       int32 = 7
	StatusUnknown             int32 = 255
)
