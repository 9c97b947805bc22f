package database

import (
	"fmt"
	"time"

	"coursedelivery/config"
	"coursedelivery/logger"
	"coursedelivery/models"
	"coursedelivery/models/course"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb opens the configured store, runs migrations and saves the
// connection globally. Any failure is fatal.
func ConnectDb(log *logger.Logger) {
	cfg := config.AppConfig

	dialector, err := Dialector(cfg)
	if err != nil {
		log.Fatal("Unsupported database driver", "driver", cfg.DBDriver, "error", err)
	}

	db, err := Open(dialector, gormlogger.Warn)
	if err != nil {
		log.Fatal("Failed to connect to database", "driver", cfg.DBDriver, "error", err)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance", "error", err)
	}
	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1) // sqlite allows a single writer
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("Running Migrations...")
	if err := Migrate(db); err != nil {
		log.Fatal("Migration failed", "error", err)
	}
	log.Info("Migrations completed successfully.", "driver", cfg.DBDriver)

	Database = DbInstance{Db: db}
}

// Dialector picks the gorm driver for cfg.DBDriver. DB_DSN wins over the
// composed connection string.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	dsn := cfg.DBDSN
	switch cfg.DBDriver {
	case "postgres", "":
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
			)
		}
		return postgres.Open(dsn), nil
	case "mysql":
		if dsn == "" {
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
			)
		}
		return mysql.Open(dsn), nil
	case "sqlite":
		if dsn == "" {
			dsn = cfg.DBName + ".db"
		}
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.DBDriver)
}

func Open(dialector gorm.Dialector, level gormlogger.LogLevel) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.OTP{},
		&models.Session{},
		&course.Course{},
		&course.Module{},
		&course.Topic{},
		&course.Class{},
		&models.CourseAccess{},
		&course.UserProgress{},
	)
}
