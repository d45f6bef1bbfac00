package entity

import (
	"testing"

	"f2v2f-service/ddd/domain/vo"
)

func newTestJob() *Job {
	return NewJob(vo.OperationEncode, "uploads/a.bin", "outputs/a.y4m", "a.bin", vo.DefaultCodecParams())
}

func TestJobLifecycle(t *testing.T) {
	j := newTestJob()
	if j.Status() != vo.JobStatusPending || j.TotalSize() != nil {
		t.Fatalf("new job: status=%s totalSize=%v", j.Status(), j.TotalSize())
	}
	if j.AdvanceProgress(10) {
		t.Fatal("progress must not move while pending")
	}
	if err := j.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	j.SetTotalSize(1024)
	if !j.AdvanceProgress(40) || j.Progress() != 40 {
		t.Fatalf("progress = %d", j.Progress())
	}
	if j.AdvanceProgress(20) || j.Progress() != 40 {
		t.Fatalf("progress regressed to %d", j.Progress())
	}
	j.AdvanceProgress(250)
	if j.Progress() != 100 {
		t.Fatalf("progress not clamped: %d", j.Progress())
	}
	if err := j.Complete("/api/download/a.y4m"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if j.Progress() != 100 || j.ResultRef() == "" || j.Err() != nil {
		t.Fatalf("unexpected completed state %+v", j.Snapshot())
	}
	if err := j.Fail(vo.ErrorKindIO, "late"); err == nil {
		t.Fatal("completed job must not fail")
	}
}

func TestJobFailUsesDefaultMessage(t *testing.T) {
	j := newTestJob()
	_ = j.Start()
	if err := j.Fail(vo.ErrorKindDecoding, ""); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if j.Err().Message != vo.ErrorKindDecoding.DefaultMessage() {
		t.Fatalf("message = %q", j.Err().Message)
	}
	if j.ResultRef() != "" {
		t.Fatal("failed job carries a result")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	j := newTestJob()
	_ = j.Start()
	j.SetTotalSize(10)
	snap := j.Snapshot()
	*snap.TotalSize = 99
	if *j.TotalSize() != 10 {
		t.Fatal("snapshot shares total size with entity")
	}
}
