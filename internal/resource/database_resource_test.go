package resource

import (
	"path/filepath"
	"testing"
	"time"

	"f2v2f-service/pkg/config"
)

func TestOpenSqliteMigratesFilesTable(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "nested", "f2v2f.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !db.Migrator().HasTable("files") {
		t.Fatal("files table missing")
	}
	if !db.Migrator().HasIndex("files", "idx_files_created_at") {
		t.Fatal("created_at index missing")
	}
	sqlDB, _ := db.DB()
	_ = sqlDB.Close()
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestExpiryLifecycleRoundsUpToDays(t *testing.T) {
	cases := []struct {
		maxAge time.Duration
		prefix string
		days   int
		filter string
	}{
		{24 * time.Hour, "artifacts", 1, "artifacts/"},
		{25 * time.Hour, "/artifacts/", 2, "artifacts/"},
		{time.Minute, "", 1, ""},
		{0, "a/b", 1, "a/b/"},
	}
	for _, c := range cases {
		lc := expiryLifecycle(c.prefix, c.maxAge)
		if len(lc.Rules) != 1 {
			t.Fatalf("rules = %d", len(lc.Rules))
		}
		rule := lc.Rules[0]
		if int(rule.Expiration.Days) != c.days || rule.RuleFilter.Prefix != c.filter || rule.Status != "Enabled" {
			t.Fatalf("%s %q: rule = %+v", c.maxAge, c.prefix, rule)
		}
	}
}

func TestNewMinioClientValidatesConfig(t *testing.T) {
	if _, err := newMinioClient(config.MinioConfig{BucketName: "f2v2f"}); err == nil {
		t.Fatal("missing endpoint accepted")
	}
	if _, err := newMinioClient(config.MinioConfig{Endpoint: "127.0.0.1:9000"}); err == nil {
		t.Fatal("missing bucket accepted")
	}
	client, err := newMinioClient(config.MinioConfig{Endpoint: "127.0.0.1:9000", BucketName: "f2v2f"})
	if err != nil || client == nil {
		t.Fatalf("client = %v err = %v", client, err)
	}
}
