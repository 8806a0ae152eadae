package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/wespark/certifier/models"
)

// Connect opens the postgres connection and runs migrations. The handle is
// returned rather than stored in a package global so the storage backend can
// be constructed explicitly by the caller.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		// Needed so duplicate-key violations surface as gorm.ErrDuplicatedKey
		// instead of driver-specific errors.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Certificate{},
		&models.MagicLink{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}
