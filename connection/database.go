package connection

import (
	"fmt"
	"time"

	"taskboard/config"
	"taskboard/repository"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBConnection opens the MySQL pool and, when DB_AUTO_MIGRATE is on, brings the schema up to date.
func DBConnection(cfg config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if cfg.DBAutoMigrate {
		if err := repository.NewGorm(db).Migrate(); err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}
	return db, nil
}

// OpenRepository picks the store named by STORE_DRIVER. The returned func releases it.
func OpenRepository(cfg config.Config) (repository.Repository, func() error, error) {
	switch cfg.StoreDriver {
	case "memory":
		return repository.NewMemory(), func() error { return nil }, nil
	default:
		db, err := DBConnection(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return repository.NewGorm(db), sqlDB.Close, nil
	}
}
