package y4m

import (
	"bufio"
	"crypto/sha256"
	"errors"
	"io"
	"os"
	"path/filepath"

	"f2v2f-service/ddd/infrastructure/codec"
)

// atomicFile writes to a hidden temp file and renames it into place on commit.
type atomicFile struct {
	f         *os.File
	final     string
	committed bool
}

func createAtomic(path string) (*atomicFile, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".partial-*")
	if err != nil {
		return nil, err
	}
	return &atomicFile{f: f, final: path}, nil
}

func (a *atomicFile) commit() error {
	if err := a.f.Sync(); err != nil {
		return err
	}
	if err := a.f.Close(); err != nil {
		return err
	}
	if err := os.Rename(a.f.Name(), a.final); err != nil {
		return err
	}
	a.committed = true
	return nil
}

func (a *atomicFile) abort() {
	if a.committed {
		return
	}
	_ = a.f.Close()
	_ = os.Remove(a.f.Name())
}

func openInput(path string) (*os.File, int64, *runError) {
	src, err := os.Open(path)
	if err != nil {
		return nil, 0, fail(codec.StatusIOError, "open input: %v", err)
	}
	st, err := src.Stat()
	if err != nil {
		_ = src.Close()
		return nil, 0, fail(codec.StatusIOError, "stat input: %v", err)
	}
	if !st.Mode().IsRegular() {
		_ = src.Close()
		return nil, 0, fail(codec.StatusInvalidInput, "input %s is not a regular file", filepath.Base(path))
	}
	return src, st.Size(), nil
}

func encodeFile(s *session, compression CompressionTag, inputPath, outputPath string, cb codec.Callback) *runError {
	src, size, rerr := openInput(inputPath)
	if rerr != nil {
		return rerr
	}
	defer src.Close()
	if size == 0 {
		return fail(codec.StatusInvalidInput, "cannot encode empty files")
	}

	out, err := createAtomic(outputPath)
	if err != nil {
		return fail(codec.StatusIOError, "create output: %v", err)
	}
	defer out.abort()

	bw := bufio.NewWriterSize(out.f, 1<<20)
	if _, err := writeStreamHeader(bw, s.g); err != nil {
		return fail(codec.StatusIOError, "write stream header: %v", err)
	}
	fw := newFrameWriter(bw, s.g)
	header := encodeHeaderRecord(streamHeader{
		version:      formatVersion,
		chunkSize:    uint32(s.chunkSize),
		declaredSize: uint64(size),
	})
	if err := fw.writeFrame(header); err != nil {
		return fail(codec.StatusIOError, "write header frame: %v", err)
	}

	capacity := s.g.lumaSize()
	digest := sha256.New()
	chunk := make([]byte, s.chunkSize)
	pending := make([]byte, 0, capacity)
	var index, consumed uint64

	for {
		n, err := io.ReadFull(src, chunk)
		if n > 0 {
			data := chunk[:n]
			digest.Write(data)
			tag, stored, cerr := compressChunk(data, compression)
			if cerr != nil {
				return fail(codec.StatusEncodingError, "chunk %d: %v", index, cerr)
			}
			if len(pending)+chunkHeaderSize+len(stored) > capacity {
				if werr := fw.writeFrame(pending); werr != nil {
					return fail(codec.StatusIOError, "write frame: %v", werr)
				}
				pending = pending[:0]
			}
			pending = appendChunkRecord(pending, chunkHeader{
				index:     index,
				tag:       tag,
				rawLen:    uint32(n),
				storedLen: uint32(len(stored)),
				hash:      hashChunk(data),
			}, stored)
			index++
			consumed += uint64(n)
			cb(consumed, fw.frames, "encoding")
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return fail(codec.StatusIOError, "read input: %v", err)
		}
	}
	if len(pending) > 0 {
		if err := fw.writeFrame(pending); err != nil {
			return fail(codec.StatusIOError, "write frame: %v", err)
		}
	}
	if consumed == 0 {
		return fail(codec.StatusInvalidInput, "cannot encode empty files")
	}

	var trailer streamTrailer
	trailer.payloadBytes = consumed
	trailer.chunkCount = index
	copy(trailer.sha256[:], digest.Sum(nil))
	if err := fw.writeFrame(encodeTrailerRecord(trailer)); err != nil {
		return fail(codec.StatusIOError, "write trailer frame: %v", err)
	}
	if err := bw.Flush(); err != nil {
		return fail(codec.StatusIOError, "flush output: %v", err)
	}
	if err := out.commit(); err != nil {
		return fail(codec.StatusIOError, "commit output: %v", err)
	}
	cb(consumed, fw.frames, "encoded")
	return nil
}
