package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/errno"
)

func newStore(t *testing.T) *LocalStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStore(config.StorageConfig{
		UploadDir: filepath.Join(dir, "uploads"),
		OutputDir: filepath.Join(dir, "outputs"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMaterializeAndRelease(t *testing.T) {
	s := newStore(t)
	loc, err := s.Materialize(context.Background(), "../../etc/report.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(loc, "uploads/") || !strings.HasSuffix(loc, "_report.pdf") {
		t.Fatalf("locator = %q", loc)
	}
	if !s.Exists(loc) {
		t.Fatal("materialized upload missing")
	}
	if size, err := s.Size(loc); err != nil || size != 9 {
		t.Fatalf("size = %d, %v", size, err)
	}

	if err := s.Release(loc, true); err != nil || !s.Exists(loc) {
		t.Fatal("retained upload must survive Release")
	}
	if err := s.Release(loc, false); err != nil || s.Exists(loc) {
		t.Fatal("released upload must be gone")
	}
	if err := s.Delete(loc); err != nil {
		t.Fatalf("deleting a missing file must not fail: %v", err)
	}
}

func TestMaterializeRejectsBadNames(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"", "..", "/"} {
		_, err := s.Materialize(context.Background(), name, strings.NewReader("x"))
		if !errors.Is(err, errno.ErrFileNameIllegal) {
			t.Fatalf("name %q: err = %v", name, err)
		}
	}
}

func TestArtifactRefRoundTrip(t *testing.T) {
	s := newStore(t)
	loc := s.AllocateOutputLocator("abc_doc.y4m")
	if loc != "outputs/abc_doc.y4m" {
		t.Fatalf("locator = %q", loc)
	}
	ref := s.ArtifactRef(loc)
	if ref != "/api/download/abc_doc.y4m" {
		t.Fatalf("ref = %q", ref)
	}
	back, ok := s.LocatorFromRef(ref)
	if !ok || back != loc {
		t.Fatalf("LocatorFromRef = %q, %v", back, ok)
	}
	if _, ok := s.LocatorFromRef("/api/download/../secret"); ok {
		t.Fatal("traversal ref accepted")
	}
}

func TestOpenDownload(t *testing.T) {
	s := newStore(t)
	loc := s.AllocateOutputLocator("out.bin")
	if err := os.WriteFile(s.LocalPath(loc), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, size, err := s.Open("out.bin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if size != 5 || string(data) != "hello" {
		t.Fatalf("download = %q (%d)", data, size)
	}
	for _, bad := range []string{"missing.bin", "../out.bin", ".hidden"} {
		if _, _, err := s.Open(bad); !errors.Is(err, errno.ErrArtifactNotFound) {
			t.Fatalf("open %q: err = %v", bad, err)
		}
	}
}

func TestSweepRemovesOnlyOldOutputs(t *testing.T) {
	s := newStore(t)
	old := s.LocalPath(s.AllocateOutputLocator("old.y4m"))
	fresh := s.LocalPath(s.AllocateOutputLocator("fresh.y4m"))
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte("v"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	upload, _ := s.Materialize(context.Background(), "in.bin", strings.NewReader("x"))
	if err := os.Chtimes(s.LocalPath(upload), past, past); err != nil {
		t.Fatal(err)
	}

	n, err := s.Sweep(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("deleted = %d, want 1", n)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("old output survived")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("fresh output removed")
	}
	if !s.Exists(upload) {
		t.Fatal("sweep must not touch uploads")
	}
}
