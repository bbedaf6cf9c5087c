package v1

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmurillo/asociacion-backend/shared/utils"
	"github.com/jmurillo/asociacion-backend/v1/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Driver names accepted in DB_DRIVER
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds GORM database connection configuration
type DatabaseConfig struct {
	Driver          string
	SQLitePath      string
	Host            string
	Port            string
	Username        string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// NewDatabaseConfig builds the database configuration from the environment.
// SQLite is the default; set DB_DRIVER=postgres to use PostgreSQL.
func NewDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver:          utils.GetEnvOrDefault("DB_DRIVER", DriverSQLite),
		SQLitePath:      utils.GetEnvOrDefault("SQLITE_PATH", "asociacion.db"),
		Host:            utils.GetEnvOrDefault("DB_HOST", "localhost"),
		Port:            utils.GetEnvOrDefault("DB_PORT", "5432"),
		Username:        utils.GetEnvOrDefault("DB_USER", "asociacion"),
		Password:        utils.GetEnvOrDefault("DB_PASSWORD", ""),
		Database:        utils.GetEnvOrDefault("DB_NAME", "asociacion"),
		SSLMode:         utils.GetEnvOrDefault("DB_SSLMODE", "disable"),
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// ConnectGormDB establishes a GORM connection using the configured driver
// and runs auto-migration for all models.
func ConnectGormDB(config *DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)

	var db *gorm.DB
	var err error

	switch config.Driver {
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(config.SQLitePath), &gorm.Config{
			Logger: gormLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// WAL keeps the file copyable while the server is running; the
		// backup path checkpoints before copying.
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		}
		for _, pragma := range pragmas {
			if err := db.Exec(pragma).Error; err != nil {
				return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
			}
		}
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			config.Host, config.Port, config.Username, config.Password, config.Database, config.SSLMode)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", config.Driver)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	slog.Info("Database connected", "driver", config.Driver)
	return db, nil
}

// AutoMigrate creates or updates the schema for all models
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Member{},
		&models.Dependent{},
		&models.MembershipRequest{},
		&models.RequestDependent{},
		&models.Activity{},
		&models.Registration{},
		&models.BackupJob{},
	)
	if err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	return nil
}
