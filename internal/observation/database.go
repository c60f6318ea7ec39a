package observation

import (
	"fmt"
	"path/filepath"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nkarvinen/photometry-go/internal/conf"
	"github.com/nkarvinen/photometry-go/internal/errors"
)

var (
	db     *gorm.DB
	dbOnce sync.Once
	dbErr  error
)

// InitializeDatabase sets up the database connection using the provided
// configuration. It defaults to SQLite if both SQLite and MySQL are enabled.
func InitializeDatabase(settings *conf.Settings) error {
	dbOnce.Do(func() {
		db, dbErr = openDatabase(settings)
	})
	return dbErr
}

func openDatabase(settings *conf.Settings) (*gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	// Prioritize SQLite
	if settings.Output.SQLite.Enabled {
		dir, fileName := filepath.Split(settings.Output.SQLite.Path)
		basePath := conf.GetBasePath(dir)
		absoluteFilePath := filepath.Join(basePath, fileName)

		sqliteDb, err := gorm.Open(sqlite.Open(absoluteFilePath), gormConfig)
		if err != nil {
			return nil, errors.New(fmt.Errorf("failed to open SQLite database: %w", err)).
				Category(errors.CategoryDatabase).
				FileContext(absoluteFilePath).
				Build()
		}
		if err := sqliteDb.AutoMigrate(&ProcessedAnimal{}); err != nil {
			return nil, errors.New(fmt.Errorf("failed to auto-migrate SQLite database: %w", err)).
				Category(errors.CategoryDatabase).
				Build()
		}
		return sqliteDb, nil
	}

	if settings.Output.MySQL.Enabled {
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			settings.Output.MySQL.Username, settings.Output.MySQL.Password,
			settings.Output.MySQL.Host, settings.Output.MySQL.Port, settings.Output.MySQL.Database)
		mysqlDb, err := gorm.Open(mysql.Open(dsn), gormConfig)
		if err != nil {
			return nil, errors.New(fmt.Errorf("failed to open MySQL database: %w", err)).
				Category(errors.CategoryDatabase).
				Build()
		}
		if err := mysqlDb.AutoMigrate(&ProcessedAnimal{}); err != nil {
			return nil, errors.New(fmt.Errorf("failed to auto-migrate MySQL database: %w", err)).
				Category(errors.CategoryDatabase).
				Build()
		}
		return mysqlDb, nil
	}

	return nil, nil
}

// DatabaseEnabled reports whether any database output is configured.
func DatabaseEnabled(settings *conf.Settings) bool {
	return settings.Output.SQLite.Enabled || settings.Output.MySQL.Enabled
}

// SaveToDatabase inserts a ProcessedAnimal record. It is a no-op when no
// database output is enabled.
func SaveToDatabase(settings *conf.Settings, record *ProcessedAnimal) error {
	if !DatabaseEnabled(settings) {
		return nil
	}
	if err := InitializeDatabase(settings); err != nil {
		return err
	}
	if db == nil {
		return nil
	}

	if err := db.Create(record).Error; err != nil {
		return errors.New(fmt.Errorf("failed to save animal record: %w", err)).
			Category(errors.CategoryDatabase).
			AnimalContext(record.AnimalID, record.GroupName).
			Build()
	}
	return nil
}
