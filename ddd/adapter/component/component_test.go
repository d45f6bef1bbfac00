package component

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"f2v2f-service/ddd/application/cqe"
	"f2v2f-service/ddd/application/dto"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/manager"
)

type fakeSubmitter struct {
	got *cqe.SubmitJobReq
	err error
}

func (f *fakeSubmitter) SubmitJob(_ context.Context, req *cqe.SubmitJobReq) (*dto.SubmitJobDTO, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.SubmitJobDTO{JobID: "job-1", Status: "pending"}, nil
}

func TestJobRequestConsumerHandle(t *testing.T) {
	sub := &fakeSubmitter{}
	c := &jobRequestConsumer{app: sub}

	id, err := c.handle(context.Background(), []byte(`{"operation":"encode","object_key":"inbox/report.pdf","width":320,"height":240}`))
	if err != nil {
		t.Fatal(err)
	}
	if id != "job-1" {
		t.Fatalf("job id = %q", id)
	}
	if sub.got.FileName != "report.pdf" || sub.got.ObjectKey != "inbox/report.pdf" || sub.got.Width != 320 {
		t.Fatalf("request = %+v", sub.got)
	}
	if sub.got.Content != nil {
		t.Fatal("content must come from object storage")
	}

	if _, err := c.handle(context.Background(), []byte(`{"operation":"encode"}`)); err == nil {
		t.Fatal("missing object_key accepted")
	}
	if _, err := c.handle(context.Background(), []byte(`not json`)); err == nil {
		t.Fatal("invalid json accepted")
	}

	sub.err = errors.New("queue full")
	if _, err := c.handle(context.Background(), []byte(`{"operation":"decode","object_key":"a.y4m"}`)); err == nil {
		t.Fatal("submit error swallowed")
	}
}

func TestConsumerDisabledWithoutKafka(t *testing.T) {
	cfg := config.Default()
	p := &JobRequestConsumerPlugin{}
	if c := p.MustCreateComponent(&manager.Dependencies{Config: cfg}); c != nil {
		t.Fatalf("component created with kafka disabled: %T", c)
	}
}

type countingCleaner struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCleaner) Cleanup(context.Context, *cqe.CleanupReq) (*dto.CleanupDTO, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &dto.CleanupDTO{DeletedFiles: 1, MaxAge: "1h0m0s"}, nil
}

func (c *countingCleaner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestRetentionSweeperTicks(t *testing.T) {
	cleaner := &countingCleaner{}
	s := NewRetentionSweeper(cleaner, 10*time.Millisecond)
	if err := s.run(context.Background()); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for cleaner.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if cleaner.count() < 2 {
		t.Fatalf("cleanup calls = %d", cleaner.count())
	}
	after := cleaner.count()
	time.Sleep(30 * time.Millisecond)
	if cleaner.count() != after {
		t.Fatal("sweeper kept running after Stop")
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestBuildInstance(t *testing.T) {
	cfg := config.Default()
	cfg.ServiceRegistry.RegisterHost = "10.0.0.5"
	cfg.GRPCServer.Enabled = true

	inst := BuildInstance(cfg, "y4m-1")
	if inst.ServiceName != "f2v2f-service" || inst.CodecVersion != "y4m-1" {
		t.Fatalf("instance = %+v", inst)
	}
	if inst.HTTPAddr != "10.0.0.5:8083" || inst.GRPCAddr != "10.0.0.5:9092" {
		t.Fatalf("addrs = %s %s", inst.HTTPAddr, inst.GRPCAddr)
	}
	if inst.ServiceID != "f2v2f-service-10.0.0.5-8083" {
		t.Fatalf("service id = %s", inst.ServiceID)
	}
}
