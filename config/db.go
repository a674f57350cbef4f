package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDBWithConfig opens the configured database. The password must already be resolved into cfg.
func InitDBWithConfig(cfg *DBConfig) *gorm.DB {
	var dialector gorm.Dialector

	switch cfg.Dialect {
	case DBDialectMysql:
		dbPath := fmt.Sprintf("%s:%s@%s", cfg.Username, cfg.Password, cfg.Url)
		dialector = mysql.Open(dbPath)
	case DBDialectSqlite3:
		dialector = sqlite.Open(cfg.Url)
	default:
		panic(fmt.Sprintf("unexpected DB dialect %s", cfg.Dialect))
	}

	logLevel := logger.Silent
	if cfg.DebugMode {
		logLevel = logger.Info
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		panic(fmt.Sprintf("open db error, err=%s", err.Error()))
	}
	dbConfig, err := db.DB()
	if err != nil {
		panic(err)
	}

	dbConfig.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConfig.SetMaxOpenConns(cfg.MaxOpenConns)
	return db
}
