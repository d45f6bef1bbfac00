//go:build !f2v2f_native

package native

import (
	"errors"

	"f2v2f-service/ddd/infrastructure/codec"
)

// ErrUnavailable is returned when the binary was built without libf2v2f.
var ErrUnavailable = errors.New("native codec engine not compiled in, rebuild with -tags f2v2f_native")

// Options configures the native library.
type Options struct {
	UseCompression   bool
	CompressionLevel int
}

// New always fails without the f2v2f_native build tag.
func New(Options) (codec.Engine, error) {
	return nil, ErrUnavailable
}
