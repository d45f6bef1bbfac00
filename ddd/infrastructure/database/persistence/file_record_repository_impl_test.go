package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/vo"
	"f2v2f-service/ddd/infrastructure/database/po"
	"f2v2f-service/pkg/errno"
)

func newTestRepo(t *testing.T) (*gorm.DB, *fileRecordRepositoryImpl) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "files.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&po.FileRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db, NewFileRecordRepository(db).(*fileRecordRepositoryImpl)
}

func record(name, ref, origin string, at time.Time) *entity.FileRecord {
	r := entity.NewFileRecord(entity.FileRecordDraft{
		Name:        name,
		Kind:        vo.FileKindEncoded,
		Size:        10,
		ArtifactRef: ref,
		OriginName:  origin,
		ChunkSize:   4096,
	})
	r.CreatedAt = at
	return r
}

func TestCreateGetAndList(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestRepo(t)
	now := time.Now()
	a := record("a.y4m", "/api/download/a.y4m", "a.txt", now.Add(-time.Minute))
	b := record("b.y4m", "/api/download/b.y4m", "b.txt", now)
	for _, r := range []*entity.FileRecord{a, b} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.Get(ctx, a.ID)
	if err != nil || got == nil || got.OriginName != "a.txt" || got.Kind != vo.FileKindEncoded {
		t.Fatalf("get = %+v, %v", got, err)
	}
	missing, err := repo.Get(ctx, "missing")
	if err != nil || missing != nil {
		t.Fatalf("missing = %+v, %v", missing, err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Fatalf("list order wrong: %v", list)
	}
}

func TestFindLatestBreaksTiesByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestRepo(t)
	at := time.Now().Truncate(time.Second)
	ref := "/api/download/same.y4m"
	first := record("same.y4m", ref, "first.pdf", at)
	second := record("same.y4m", ref, "second.pdf", at)
	_ = repo.Create(ctx, first)
	_ = repo.Create(ctx, second)
	_ = repo.Create(ctx, record("other.y4m", "/api/download/other.y4m", "other.pdf", at.Add(time.Hour)))

	latest, err := repo.FindLatestByArtifactRef(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.OriginName != "second.pdf" {
		t.Fatalf("latest = %+v", latest)
	}
	none, err := repo.FindLatestByArtifactRef(ctx, "/api/download/unknown")
	if err != nil || none != nil {
		t.Fatalf("unknown ref = %+v, %v", none, err)
	}
}

func TestDeleteWithRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestRepo(t)
	r := record("x.y4m", "/api/download/x.y4m", "x.bin", time.Now())
	_ = repo.Create(ctx, r)

	boom := errors.New("artifact delete failed")
	err := repo.DeleteWith(ctx, r.ID, func(rec *entity.FileRecord) error {
		if rec.ID != r.ID {
			t.Errorf("callback got %s", rec.ID)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if still, _ := repo.Get(ctx, r.ID); still == nil {
		t.Fatal("row deleted despite failing callback")
	}

	if err := repo.DeleteWith(ctx, r.ID, func(*entity.FileRecord) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if gone, _ := repo.Get(ctx, r.ID); gone != nil {
		t.Fatal("row still present")
	}
	if err := repo.DeleteWith(ctx, r.ID, nil); !errors.Is(err, errno.ErrFileRecordNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}
