package models

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/Daskott/sos/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const DB_NAME = "sos.db"

type BaseModel struct {
	ID        uint      `json:"id,omitempty" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// OpenDB opens (creating if needed) the sqlite database in 'rootDir'/db
// and migrates the schema.
func OpenDB(rootDir string) (*gorm.DB, error) {
	dbDir, err := DbDirectory(rootDir)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%v?_journal_mode=WAL&_busy_timeout=5000", filepath.Join(dbDir, DB_NAME))
	return open(dsn)
}

// InitializeTestDb returns a migrated, in-memory database that is
// private to the caller.
func InitializeTestDb() *gorm.DB {
	dsn := fmt.Sprintf("file:test_%v?mode=memory&cache=shared", uuid.NewString())

	db, err := open(dsn)
	if err != nil {
		log.Panic(err)
	}

	return db
}

func DbDirectory(rootDir string) (string, error) {
	dbDir := filepath.Join(rootDir, "db")

	err := utils.CreateDirIfNotExist(dbDir)
	if err != nil {
		return "", err
	}

	return dbDir, nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqliteEncrypt.Open(dsn), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %v", err)
	}

	// sqlite allows a single writer, serialize access through one connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&Setting{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return db, nil
}
