package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"f2v2f-service/ddd/application/cqe"
	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/gateway"
	"f2v2f-service/ddd/domain/service"
	"f2v2f-service/ddd/domain/vo"
	"f2v2f-service/ddd/infrastructure/codec"
	"f2v2f-service/ddd/infrastructure/database/po"
	"f2v2f-service/ddd/infrastructure/database/persistence"
	"f2v2f-service/ddd/infrastructure/memory"
	"f2v2f-service/ddd/infrastructure/queue"
	"f2v2f-service/ddd/infrastructure/storage"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/errno"
)

func TestNewEngine(t *testing.T) {
	for _, name := range []string{"", "y4m", "Y4M"} {
		e, err := NewEngine(config.CodecConfig{Engine: name, Compression: "lz4"})
		if err != nil {
			t.Fatalf("engine %q: %v", name, err)
		}
		if _, err := codec.NewBridge(e); err != nil {
			t.Fatalf("bridge for %q: %v", name, err)
		}
	}
	if _, err := NewEngine(config.CodecConfig{Engine: "y4m", Compression: "brotli"}); err == nil {
		t.Fatal("unknown compression accepted")
	}
	if _, err := NewEngine(config.CodecConfig{Engine: "ffmpeg"}); err == nil {
		t.Fatal("unknown engine accepted")
	}
}

type testApp struct {
	CodecApp
	uploads  string
	queue    *queue.MemoryJobQueue
	registry service.ProvenanceRegistry
}

type memorySource map[string]string

func (m memorySource) Fetch(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := m[key]
	if !ok {
		return nil, errno.NewBizError(errno.ErrArtifactNotFound, nil)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func newTestApp(t *testing.T, capacity int) *testApp {
	t.Helper()
	return newTestAppWithSource(t, capacity, nil)
}

func newTestAppWithSource(t *testing.T, capacity int, source gateway.ArtifactSource) *testApp {
	t.Helper()
	dir := t.TempDir()
	storeCfg := config.StorageConfig{
		UploadDir: filepath.Join(dir, "uploads"),
		OutputDir: filepath.Join(dir, "outputs"),
	}
	store, err := storage.NewLocalStore(storeCfg)
	if err != nil {
		t.Fatal(err)
	}
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "files.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&po.FileRecord{}); err != nil {
		t.Fatal(err)
	}
	engine, err := NewEngine(config.CodecConfig{Engine: "y4m", Compression: "none"})
	if err != nil {
		t.Fatal(err)
	}
	bridge, err := codec.NewBridge(engine)
	if err != nil {
		t.Fatal(err)
	}
	q := queue.NewMemoryJobQueue(capacity)
	registry := service.NewProvenanceRegistry(persistence.NewFileRecordRepository(db), store, nil)
	jobs := service.NewJobManager(service.JobManagerDeps{
		Jobs:      memory.NewJobRepository(),
		Scheduler: q,
		Codec:     bridge,
		Store:     store,
		Registry:  registry,
	})
	a := NewCodecAppWith(jobs, registry, store, source, bridge, config.RetentionConfig{})
	t.Cleanup(a.Close)
	return &testApp{CodecApp: a, uploads: storeCfg.UploadDir, queue: q, registry: registry}
}

func (a *testApp) uploadCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(a.uploads)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func TestSubmitJobQueuesAndReportsPending(t *testing.T) {
	a := newTestApp(t, 4)
	resp, err := a.SubmitJob(context.Background(), &cqe.SubmitJobReq{
		Operation: "encode",
		FileName:  "../etc/data.bin",
		Content:   strings.NewReader("payload"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != vo.JobStatusPending.String() || resp.JobID == "" {
		t.Fatalf("resp = %+v", resp)
	}
	if a.queue.Size() != 1 {
		t.Fatalf("queue size = %d", a.queue.Size())
	}
	job, err := a.GetJobStatus(context.Background(), resp.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.Operation != "encode" || job.Status != "pending" {
		t.Fatalf("job = %+v", job)
	}
	jobs, err := a.ListJobs(context.Background())
	if err != nil || len(jobs) != 1 {
		t.Fatalf("jobs = %v err = %v", jobs, err)
	}
}

func TestSubmitJobRemovesInputWhenRejected(t *testing.T) {
	a := newTestApp(t, 4)
	_, err := a.SubmitJob(context.Background(), &cqe.SubmitJobReq{
		Operation: "encode",
		FileName:  "data.bin",
		Content:   strings.NewReader("payload"),
		Width:     8,
	})
	if !errors.Is(err, errno.ErrCodecParamsRange) {
		t.Fatalf("err = %v", err)
	}
	if n := a.uploadCount(t); n != 0 {
		t.Fatalf("uploads left behind: %d", n)
	}
}

func TestSubmitJobQueueFullFailsJob(t *testing.T) {
	a := newTestApp(t, 1)
	submit := func() (string, error) {
		resp, err := a.SubmitJob(context.Background(), &cqe.SubmitJobReq{
			Operation: "encode",
			FileName:  "data.bin",
			Content:   strings.NewReader("payload"),
		})
		if resp != nil {
			return resp.JobID, err
		}
		return "", err
	}
	if _, err := submit(); err != nil {
		t.Fatal(err)
	}
	rejectedID, err := submit()
	if !errors.Is(err, errno.ErrQueueFull) {
		t.Fatalf("err = %v", err)
	}
	if rejectedID == "" {
		t.Fatal("rejected job id not returned")
	}
	rejected, err := a.GetJobStatus(context.Background(), rejectedID)
	if err != nil {
		t.Fatal(err)
	}
	if rejected.Status != "failed" {
		t.Fatalf("rejected job = %+v", rejected)
	}
	jobs, err := a.ListJobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	failed := 0
	for _, j := range jobs {
		if j.Status == "failed" {
			failed++
		}
	}
	if len(jobs) != 2 || failed != 1 {
		t.Fatalf("jobs = %d failed = %d", len(jobs), failed)
	}
	// 被拒绝任务的输入由任务管理释放
	if n := a.uploadCount(t); n != 1 {
		t.Fatalf("uploads = %d", n)
	}
}

func TestSubmitJobFromObjectStorageNeedsSource(t *testing.T) {
	a := newTestApp(t, 4)
	_, err := a.SubmitJob(context.Background(), &cqe.SubmitJobReq{
		Operation: "decode",
		FileName:  "video.y4m",
		ObjectKey: "inbox/video.y4m",
	})
	if !errors.Is(err, errno.ErrMissingFile) {
		t.Fatalf("err = %v", err)
	}
}

func TestSubmitDecodeFromObjectKeyFindsOrigin(t *testing.T) {
	a := newTestAppWithSource(t, 4, memorySource{"artifacts/abc_report.y4m": "video bytes"})
	ctx := context.Background()
	if _, err := a.registry.Record(ctx, entity.FileRecordDraft{
		Name:        "report.pdf",
		Kind:        vo.FileKindEncoded,
		ArtifactRef: storage.DownloadRefPrefix + "abc_report.y4m",
		OriginName:  "report.pdf",
	}); err != nil {
		t.Fatal(err)
	}
	resp, err := a.SubmitJob(ctx, &cqe.SubmitJobReq{
		Operation: "decode",
		FileName:  "renamed-by-sender.y4m",
		ObjectKey: "artifacts/abc_report.y4m",
	})
	if err != nil {
		t.Fatal(err)
	}
	job, err := a.GetJobStatus(ctx, resp.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.OriginName != "report.pdf" {
		t.Fatalf("origin = %q", job.OriginName)
	}
}

func TestCleanupAndVersion(t *testing.T) {
	a := newTestApp(t, 4)
	resp, err := a.Cleanup(context.Background(), &cqe.CleanupReq{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.MaxAge != "24h0m0s" {
		t.Fatalf("default max age = %s", resp.MaxAge)
	}
	if _, err := a.Cleanup(context.Background(), &cqe.CleanupReq{MaxAge: "-1h"}); !errors.Is(err, errno.ErrInvalidParam) {
		t.Fatalf("err = %v", err)
	}
	v := a.Version()
	if v.Container != ".y4m" || v.Service != serviceName || v.Codec == "" {
		t.Fatalf("version = %+v", v)
	}
	if err := a.DeleteFile(context.Background(), "missing"); !errors.Is(err, errno.ErrFileRecordNotFound) {
		t.Fatalf("delete err = %v", err)
	}
}
