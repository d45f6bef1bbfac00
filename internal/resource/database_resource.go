package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"f2v2f-service/ddd/infrastructure/database/po"
	"f2v2f-service/pkg/assert"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/manager"
)

var (
	databaseResourceOnce      sync.Once
	singletonDatabaseResource *DatabaseResource
)

// DatabaseResource 登记库连接，支持 mysql 和 sqlite
type DatabaseResource struct {
	db *gorm.DB
}

// DefaultDatabaseResource 获取数据库资源单例
func DefaultDatabaseResource() *DatabaseResource {
	assert.NotCircular()
	databaseResourceOnce.Do(func() {
		singletonDatabaseResource = &DatabaseResource{}
	})
	assert.NotNil(singletonDatabaseResource)
	return singletonDatabaseResource
}

// MustOpen 打开连接并迁移 files 表
func (r *DatabaseResource) MustOpen() {
	if r.db != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before DatabaseResource")
	}
	db, err := Open(cfg.Database)
	if err != nil {
		panic(fmt.Sprintf("failed to open database: %v", err))
	}
	r.db = db

	logger.Info("Database resource initialized", map[string]interface{}{
		"driver": cfg.Database.Driver,
	})
}

// Open 按配置建立 gorm 连接并执行自动迁移
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "mysql":
		dialector = mysql.Open(cfg.GetDSN())
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(parseGormLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&po.FileRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate files table: %w", err)
	}
	return db, nil
}

func parseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "info":
		return gormlogger.Info
	case "warn":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}

// MainDB 返回主库连接
func (r *DatabaseResource) MainDB() *gorm.DB {
	return r.db
}

// Close 关闭连接
func (r *DatabaseResource) Close() {
	if r.db == nil {
		return
	}
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// DatabaseResourcePlugin 数据库资源插件
type DatabaseResourcePlugin struct{}

func (p *DatabaseResourcePlugin) Name() string {
	return "databaseResource"
}

func (p *DatabaseResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultDatabaseResource()
}
