package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"f2v2f-service/pkg/errno"
)

func TestScheduleAndDequeue(t *testing.T) {
	q := NewMemoryJobQueue(2)
	ctx := context.Background()
	if err := q.Schedule(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := q.Schedule(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if err := q.Schedule(ctx, "c"); !errors.Is(err, errno.ErrQueueFull) {
		t.Fatalf("err = %v, want queue full", err)
	}
	id, err := q.Dequeue(ctx)
	if err != nil || id != "a" {
		t.Fatalf("dequeue = %q, %v", id, err)
	}
	m := q.GetMetrics()
	if m.EnqueueCount != 2 || m.DequeueCount != 1 || m.RejectedCount != 1 || m.CurrentSize != 1 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestScheduleRejectsEmptyID(t *testing.T) {
	q := NewMemoryJobQueue(1)
	if err := q.Schedule(context.Background(), ""); !errors.Is(err, errno.ErrJobIDRequired) {
		t.Fatalf("err = %v", err)
	}
}

func TestDequeueHonoursContext(t *testing.T) {
	q := NewMemoryJobQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := q.Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestCloseReturnsPendingAndUnblocksConsumers(t *testing.T) {
	q := NewMemoryJobQueue(4)
	ctx := context.Background()
	_ = q.Schedule(ctx, "x")
	_ = q.Schedule(ctx, "y")

	rest := q.Close()
	if len(rest) != 2 {
		t.Fatalf("rest = %v", rest)
	}
	if _, err := q.Dequeue(ctx); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("dequeue after close err = %v", err)
	}
	if err := q.Schedule(ctx, "z"); !errors.Is(err, errno.ErrSchedulerStopped) {
		t.Fatalf("schedule after close err = %v", err)
	}
	if q.Close() != nil {
		t.Fatal("second close must be a no-op")
	}

	blocked := NewMemoryJobQueue(1)
	done := make(chan error, 1)
	go func() {
		_, err := blocked.Dequeue(context.Background())
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	blocked.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrQueueClosed) {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("consumer not released by Close")
	}
}
