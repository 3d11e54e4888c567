package calllog

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/t31hub/t31hub/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	connsPerCPU = 10
	maxIdleTime = 10 * time.Minute
)

// MakeDB opens the call-log sqlite database, runs its migrations and tunes
// the connection pool, following the teacher's internal/db.MakeDB shape.
func MakeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.CallLog.DatabasePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open call log database: %w", err)
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		initialSchemaMigration(),
	})
	if err := m.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate call log database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(runtime.GOMAXPROCS(0))
	sqlDB.SetMaxOpenConns(runtime.GOMAXPROCS(0) * connsPerCPU)
	sqlDB.SetConnMaxIdleTime(maxIdleTime)

	return db, nil
}

func initialSchemaMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "202601010000_create_calls",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&Call{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&Call{})
		},
	}
}
