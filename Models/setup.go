package Models

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open returns a gorm handle for the given driver ("sqlite", "postgres" or "mysql").
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", "sqlite":
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return db, nil
}

// Connect opens the database, migrates it and stores the handle in DB.
func Connect(driver, dsn string) error {
	connection, err := Open(driver, dsn)
	if err != nil {
		return err
	}
	if err := Migrate(connection); err != nil {
		return err
	}
	DB = connection
	log.Printf("Connected to %s database", driver)
	return nil
}

func Migrate(db *gorm.DB) error {
	// 1. Lookup tables and profiles have no dependencies
	if err := db.AutoMigrate(
		&Profile{},
		&Regulation{},
		&MonitoringFrequency{},
		&DatabaseType{},
		&Program{},
		&WorkType{},
		&TvaUnit{},
	); err != nil {
		return fmt.Errorf("migrate lookup tables: %w", err)
	}

	// 2. Clients and their association tables
	if err := db.AutoMigrate(&Client{}, &ClientDatabaseType{}); err != nil {
		return fmt.Errorf("migrate clients: %w", err)
	}

	// 3. Everything hanging off clients and field events
	if err := db.AutoMigrate(
		&FieldEvent{},
		&WorkRequest{},
		&WrAssignee{},
		&WrBudget{},
		&TimeEntry{},
		&ValveFollowup{},
		&ValveFollowupEvent{},
		&FieldShift{},
	); err != nil {
		return fmt.Errorf("migrate field records: %w", err)
	}
	return nil
}

// IsDuplicateKeyError reports whether err is a unique constraint violation
// from any of the supported drivers.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "23505")
}
