package y4m

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"errors"
	"io"

	"f2v2f-service/ddd/domain/vo"
	"f2v2f-service/ddd/infrastructure/codec"
)

// decodeFile restores the original bytes. Geometry comes from the stream
// header, not from the session, so videos decode with any decoder session.
func decodeFile(s *session, inputPath, outputPath string, cb codec.Callback) *runError {
	src, size, rerr := openInput(inputPath)
	if rerr != nil {
		return rerr
	}
	defer src.Close()
	if size == 0 {
		return fail(codec.StatusInvalidInput, "cannot decode empty files")
	}

	br := bufio.NewReaderSize(src, 1<<20)
	g, consumed, err := readStreamHeader(br)
	if err != nil {
		return fail(codec.StatusInvalidInput, "%v", err)
	}
	fr := newFrameReader(br, g, consumed)

	first, err := fr.next()
	if err != nil {
		return fail(codec.StatusDecodingError, "read header frame: %v", err)
	}
	header, ok := decodeHeaderRecord(first)
	if !ok {
		return fail(codec.StatusInvalidInput, "video was not produced by f2v2f")
	}
	if header.version != formatVersion {
		return fail(codec.StatusDecodingError, "unsupported format version %d", header.version)
	}
	if header.chunkSize == 0 || header.chunkSize > vo.MaxChunkSize {
		return fail(codec.StatusDecodingError, "invalid chunk size %d in video header", header.chunkSize)
	}

	out, err := createAtomic(outputPath)
	if err != nil {
		return fail(codec.StatusIOError, "create output: %v", err)
	}
	defer out.abort()
	bw := bufio.NewWriterSize(out.f, 1<<20)

	digest := sha256.New()
	var (
		expected  uint64
		recovered uint64
		trailer   streamTrailer
		sawEnd    bool
	)
	for !sawEnd {
		luma, err := fr.next()
		if errors.Is(err, io.EOF) {
			return fail(codec.StatusDecodingError, "truncated video: missing trailer after %d chunks", expected)
		}
		if err != nil {
			return fail(codec.StatusDecodingError, "%v", err)
		}
		if t, ok := decodeTrailerRecord(luma); ok {
			trailer, sawEnd = t, true
			break
		}
		for off := 0; ; {
			h, ok := parseChunkHeader(luma[off:])
			if !ok {
				break
			}
			if h.index != expected {
				return fail(codec.StatusDecodingError, "chunk %d out of order, expected %d", h.index, expected)
			}
			if h.rawLen == 0 || h.rawLen > header.chunkSize {
				return fail(codec.StatusDecodingError, "chunk %d has invalid length %d", h.index, h.rawLen)
			}
			start := off + chunkHeaderSize
			end := start + int(h.storedLen)
			if end > len(luma) {
				return fail(codec.StatusDecodingError, "chunk %d overruns its frame", h.index)
			}
			raw, err := decompressChunk(luma[start:end], h.tag, int(h.rawLen))
			if err != nil {
				return fail(codec.StatusDecodingError, "chunk %d: %v", h.index, err)
			}
			if hashChunk(raw) != h.hash {
				return fail(codec.StatusDecodingError, "chunk %d failed integrity check", h.index)
			}
			if _, err := bw.Write(raw); err != nil {
				return fail(codec.StatusIOError, "write output: %v", err)
			}
			digest.Write(raw)
			recovered += uint64(h.rawLen)
			expected++
			off = end
		}
		cb(uint64(fr.consumed), fr.frames, "decoding")
	}

	if trailer.chunkCount != expected || trailer.payloadBytes != recovered {
		return fail(codec.StatusDecodingError, "recovered %d bytes in %d chunks, video declares %d bytes in %d chunks",
			recovered, expected, trailer.payloadBytes, trailer.chunkCount)
	}
	if !bytes.Equal(digest.Sum(nil), trailer.sha256[:]) {
		return fail(codec.StatusDecodingError, "checksum mismatch on recovered data")
	}
	if err := bw.Flush(); err != nil {
		return fail(codec.StatusIOError, "flush output: %v", err)
	}
	if err := out.commit(); err != nil {
		return fail(codec.StatusIOError, "commit output: %v", err)
	}
	cb(uint64(fr.consumed), fr.frames, "decoded")
	return nil
}
