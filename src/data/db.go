package data

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported DB_DRIVER values.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Connect opens the configured database and migrates the schema.
func Connect(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMySQL, "":
		db, err = ConnectMySQL(dsn, log)
	case DriverSQLite, "sqlite3":
		db, err = ConnectSQLite(dsn, log)
	default:
		return nil, fmt.Errorf("data: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// ConnectMySQL opens a gorm DB with sane defaults.
func ConnectMySQL(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("data: MYSQL_DSN is not set")
	}
	dsn = ensureParam(dsn, "parseTime", "true")
	if !strings.Contains(dsn, "charset=") {
		dsn = ensureParam(dsn, "charset", "utf8mb4")
		dsn = ensureParam(dsn, "collation", "utf8mb4_unicode_ci")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("data: open mysql: %w", err)
	}
	return db, nil
}

// ConnectSQLite opens a file-backed SQLite database.
func ConnectSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	if strings.TrimSpace(path) == "" {
		path = "mmr.db"
	}
	db, err := gorm.Open(sqlite.Open(ensureParam(path, "_busy_timeout", "5000")), &gorm.Config{Logger: gormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("data: open sqlite: %w", err)
	}
	return db, nil
}

func gormLogger(log *zap.Logger) logger.Interface {
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{SlowThreshold: time.Second, LogLevel: logger.Warn, IgnoreRecordNotFoundError: true, Colorful: false},
	)
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}

// Migrate creates or updates every table this package owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&ProfileRecord{}, &PillarRecord{}, &Setting{}, &ChatMessage{}); err != nil {
		return fmt.Errorf("data: migrate: %w", err)
	}
	return nil
}
