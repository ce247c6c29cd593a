package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/newshub/internal/config"
	"github.com/newshub/internal/trigram"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteDriverName 是注册了 similarity() 函数的 sqlite 驱动名。
const sqliteDriverName = "sqlite3_newshub"

var registerDriver sync.Once

// Init 按配置打开数据库并执行自动迁移。
func Init(cfg config.AppConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: newGormLogger(cfg.LogLevel)}

	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.DatabaseDriver {
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseDSN) == "" {
			return nil, errors.New("DATABASE_DSN is required for postgres")
		}
		gdb, err = OpenPostgres(cfg.DatabaseDSN, gormCfg)
	case "sqlite", "":
		path := strings.TrimSpace(cfg.DatabasePath)
		if path == "" {
			path = "newshub.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		gdb, err = OpenSQLite(path, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// OpenSQLite 打开 sqlite 数据库，开启外键并注册 similarity(a, b) 函数，
// 使搜索语句与 PostgreSQL 的 pg_trgm 保持一致。
func OpenSQLite(dsn string, gormCfg *gorm.Config) (*gorm.DB, error) {
	registerDriver.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("similarity", trigram.Similarity, true)
			},
		})
	})

	if gormCfg == nil {
		gormCfg = &gorm.Config{}
	}
	return gorm.Open(sqlite.New(sqlite.Config{
		DriverName: sqliteDriverName,
		DSN:        withForeignKeys(dsn),
	}), gormCfg)
}

// OpenPostgres 打开 PostgreSQL 连接并确保 pg_trgm 扩展可用。
func OpenPostgres(dsn string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{}
	}
	gdb, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := gdb.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		return nil, fmt.Errorf("enable pg_trgm: %w", err)
	}
	return gdb, nil
}

// Migrate 为核心模型建表。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&User{},
		&Post{},
		&Comment{},
		&Image{},
		&Ticket{},
	)
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=1"
	}
	return dsn + "?_foreign_keys=1"
}

// newGormLogger 将应用日志级别映射到 gorm 日志级别，info 级别只保留慢查询与警告。
func newGormLogger(level string) logger.Interface {
	var lv logger.LogLevel
	switch level {
	case "debug":
		lv = logger.Info
	case "error":
		lv = logger.Error
	case "silent":
		lv = logger.Silent
	default:
		lv = logger.Warn
	}
	return logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  lv,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
