package y4m

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"f2v2f-service/ddd/domain/vo"
)

// Frame payload layout, all integers big-endian:
//
//	header frame:  "F2V2FHDR" | version u16 | chunk size u32 | declared size u64
//	data frames:   repeated chunk records, zero padded
//	               "CHNK" | index u64 | tag u8 | raw len u32 | stored len u32 | blake3 [32] | stored bytes
//	trailer frame: "F2V2FEND" | payload bytes u64 | chunk count u64 | sha256 [32]
const (
	streamMagic  = "YUV4MPEG2"
	frameMarker  = "FRAME"
	headerMagic  = "F2V2FHDR"
	trailerMagic = "F2V2FEND"
	chunkMagic   = "CHNK"

	formatVersion uint16 = 1

	headerRecordSize  = 8 + 2 + 4 + 8
	trailerRecordSize = 8 + 8 + 8 + 32
	chunkHeaderSize   = 4 + 8 + 1 + 4 + 4 + 32

	maxHeaderLine = 1024
	chromaFill    = 128
)

type geometry struct {
	width, height, fps int
}

func (g geometry) lumaSize() int {
	return g.width * g.height
}

func (g geometry) chromaSize() int {
	return 2 * ((g.width + 1) / 2) * ((g.height + 1) / 2)
}

func (g geometry) frameSize() int64 {
	return int64(len(frameMarker)+1) + int64(g.lumaSize()) + int64(g.chromaSize())
}

func writeStreamHeader(w io.Writer, g geometry) (int, error) {
	return fmt.Fprintf(w, "%s W%d H%d F%d:1 Ip A1:1 C420jpeg XF2V2F=%d\n", streamMagic, g.width, g.height, g.fps, formatVersion)
}

func readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		part, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", err
		}
		buf = append(buf, part...)
		if len(buf) > maxHeaderLine {
			return "", errors.New("header line too long")
		}
		if !isPrefix {
			return string(buf), nil
		}
	}
}

// readStreamHeader parses the YUV4MPEG2 header and returns the number of bytes consumed.
func readStreamHeader(r *bufio.Reader) (geometry, int64, error) {
	line, err := readLine(r)
	if err != nil {
		return geometry{}, 0, fmt.Errorf("read stream header: %w", err)
	}
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != streamMagic {
		return geometry{}, 0, errors.New("not a YUV4MPEG2 stream")
	}
	var g geometry
	for _, f := range fields[1:] {
		if len(f) < 2 {
			continue
		}
		val := f[1:]
		switch f[0] {
		case 'W':
			g.width, err = strconv.Atoi(val)
		case 'H':
			g.height, err = strconv.Atoi(val)
		case 'F':
			num, den, ok := strings.Cut(val, ":")
			n, e1 := strconv.Atoi(num)
			d := 1
			var e2 error
			if ok {
				d, e2 = strconv.Atoi(den)
			}
			if e1 == nil && e2 == nil && d > 0 {
				g.fps = n / d
			}
		case 'C':
			if !strings.HasPrefix(val, "420") {
				return geometry{}, 0, fmt.Errorf("unsupported colorspace %s", val)
			}
		}
		if err != nil {
			return geometry{}, 0, fmt.Errorf("bad header token %q", f)
		}
	}
	if g.width <= 0 || g.height <= 0 {
		return geometry{}, 0, errors.New("stream header has no frame size")
	}
	// 帧缓冲按头部尺寸分配，超出范围的尺寸不可信
	if g.width < vo.MinFrameDimension || g.width > vo.MaxFrameWidth ||
		g.height < vo.MinFrameDimension || g.height > vo.MaxFrameHeight {
		return geometry{}, 0, fmt.Errorf("frame size %dx%d outside %d..%dx%d",
			g.width, g.height, vo.MinFrameDimension, vo.MaxFrameWidth, vo.MaxFrameHeight)
	}
	return g, int64(len(line) + 1), nil
}

type frameWriter struct {
	w      io.Writer
	g      geometry
	luma   []byte
	chroma []byte
	frames uint64
}

func newFrameWriter(w io.Writer, g geometry) *frameWriter {
	return &frameWriter{
		w:      w,
		g:      g,
		luma:   make([]byte, g.lumaSize()),
		chroma: bytes.Repeat([]byte{chromaFill}, g.chromaSize()),
	}
}

// writeFrame emits one frame whose luma plane starts with payload.
func (f *frameWriter) writeFrame(payload []byte) error {
	if len(payload) > len(f.luma) {
		return fmt.Errorf("payload of %d bytes exceeds frame capacity %d", len(payload), len(f.luma))
	}
	n := copy(f.luma, payload)
	clear(f.luma[n:])
	if _, err := io.WriteString(f.w, frameMarker+"\n"); err != nil {
		return err
	}
	if _, err := f.w.Write(f.luma); err != nil {
		return err
	}
	if _, err := f.w.Write(f.chroma); err != nil {
		return err
	}
	f.frames++
	return nil
}

type frameReader struct {
	r        *bufio.Reader
	g        geometry
	luma     []byte
	chroma   []byte
	frames   uint64
	consumed int64
}

func newFrameReader(r *bufio.Reader, g geometry, consumed int64) *frameReader {
	return &frameReader{
		r:        r,
		g:        g,
		luma:     make([]byte, g.lumaSize()),
		chroma:   make([]byte, g.chromaSize()),
		consumed: consumed,
	}
}

// next returns the luma plane of the next frame, io.EOF at a clean end of stream.
// The returned slice is reused by the following call.
func (f *frameReader) next() ([]byte, error) {
	line, err := readLine(f.r)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, frameMarker) {
		return nil, fmt.Errorf("frame %d: missing FRAME marker", f.frames)
	}
	if _, err := io.ReadFull(f.r, f.luma); err != nil {
		return nil, fmt.Errorf("frame %d: %w", f.frames, io.ErrUnexpectedEOF)
	}
	if _, err := io.ReadFull(f.r, f.chroma); err != nil {
		return nil, fmt.Errorf("frame %d: %w", f.frames, io.ErrUnexpectedEOF)
	}
	f.frames++
	f.consumed += int64(len(line)+1) + int64(len(f.luma)) + int64(len(f.chroma))
	return f.luma, nil
}

type streamHeader struct {
	version      uint16
	chunkSize    uint32
	declaredSize uint64
}

func encodeHeaderRecord(h streamHeader) []byte {
	b := make([]byte, 0, headerRecordSize)
	b = append(b, headerMagic...)
	b = binary.BigEndian.AppendUint16(b, h.version)
	b = binary.BigEndian.AppendUint32(b, h.chunkSize)
	b = binary.BigEndian.AppendUint64(b, h.declaredSize)
	return b
}

func decodeHeaderRecord(b []byte) (streamHeader, bool) {
	if len(b) < headerRecordSize || string(b[:8]) != headerMagic {
		return streamHeader{}, false
	}
	return streamHeader{
		version:      binary.BigEndian.Uint16(b[8:10]),
		chunkSize:    binary.BigEndian.Uint32(b[10:14]),
		declaredSize: binary.BigEndian.Uint64(b[14:22]),
	}, true
}

type streamTrailer struct {
	payloadBytes uint64
	chunkCount   uint64
	sha256       [32]byte
}

func encodeTrailerRecord(t streamTrailer) []byte {
	b := make([]byte, 0, trailerRecordSize)
	b = append(b, trailerMagic...)
	b = binary.BigEndian.AppendUint64(b, t.payloadBytes)
	b = binary.BigEndian.AppendUint64(b, t.chunkCount)
	b = append(b, t.sha256[:]...)
	return b
}

func decodeTrailerRecord(b []byte) (streamTrailer, bool) {
	if len(b) < trailerRecordSize || string(b[:8]) != trailerMagic {
		return streamTrailer{}, false
	}
	var t streamTrailer
	t.payloadBytes = binary.BigEndian.Uint64(b[8:16])
	t.chunkCount = binary.BigEndian.Uint64(b[16:24])
	copy(t.sha256[:], b[24:56])
	return t, true
}

type chunkHeader struct {
	index     uint64
	tag       CompressionTag
	rawLen    uint32
	storedLen uint32
	hash      chunkHash
}

func appendChunkRecord(dst []byte, h chunkHeader, stored []byte) []byte {
	dst = append(dst, chunkMagic...)
	dst = binary.BigEndian.AppendUint64(dst, h.index)
	dst = append(dst, byte(h.tag))
	dst = binary.BigEndian.AppendUint32(dst, h.rawLen)
	dst = binary.BigEndian.AppendUint32(dst, h.storedLen)
	dst = append(dst, h.hash[:]...)
	return append(dst, stored...)
}

// parseChunkHeader reads a chunk header at b[0:]. ok is false when no record starts there.
func parseChunkHeader(b []byte) (chunkHeader, bool) {
	if len(b) < chunkHeaderSize || string(b[:4]) != chunkMagic {
		return chunkHeader{}, false
	}
	var h chunkHeader
	h.index = binary.BigEndian.Uint64(b[4:12])
	h.tag = CompressionTag(b[12])
	h.rawLen = binary.BigEndian.Uint32(b[13:17])
	h.storedLen = binary.BigEndian.Uint32(b[17:21])
	copy(h.hash[:], b[21:53])
	return h, true
}
