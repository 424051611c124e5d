package database

import (
	"errors"
	"fmt"
	"time"

	"production-assistant/backend/internal/config"
	"production-assistant/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PoolConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogLevel        logger.LogLevel
}

func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Driver:          "sqlite",
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		LogLevel:        logger.Info,
	}
}

// PoolConfigFromApp maps the application configuration onto a PoolConfig.
func PoolConfigFromApp(cfg *config.Config) *PoolConfig {
	pc := DefaultPoolConfig()
	pc.Driver = cfg.Database.Driver
	pc.DSN = cfg.GetDatabaseDSN()
	pc.MaxOpenConns = cfg.Database.MaxOpenConns
	pc.MaxIdleConns = cfg.Database.MaxIdleConns
	pc.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	pc.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime
	if cfg.IsProduction() {
		pc.LogLevel = logger.Warn
	}
	return pc
}

type DatabasePool struct {
	DB     *gorm.DB
	config *PoolConfig
}

// NewDatabasePool opens the database, applies pool settings, and ensures the
// tasks schema exists. SQLite is constrained to a single open connection so
// id assignment and record mutation serialize at the driver level.
func NewDatabasePool(poolConfig *PoolConfig) (*DatabasePool, error) {
	if poolConfig == nil {
		poolConfig = DefaultPoolConfig()
	}
	if poolConfig.DSN == "" {
		return nil, errors.New("database DSN is required")
	}

	var dialector gorm.Dialector
	switch poolConfig.Driver {
	case "sqlite":
		dialector = sqlite.Open(poolConfig.DSN)
	case "postgres":
		dialector = postgres.Open(poolConfig.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", poolConfig.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(poolConfig.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if poolConfig.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
		sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(poolConfig.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(poolConfig.ConnMaxIdleTime)
	}

	if err := db.AutoMigrate(&models.Task{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &DatabasePool{DB: db, config: poolConfig}, nil
}

// Ping verifies the database connection is alive.
func (p *DatabasePool) Ping() error {
	if p.DB == nil {
		return errors.New("database not connected")
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the underlying database connection.
func (p *DatabasePool) Close() error {
	if p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Stats reports connection pool statistics for the metrics endpoint.
func (p *DatabasePool) Stats() map[string]interface{} {
	if p.DB == nil {
		return map[string]interface{}{"error": "database not connected"}
	}

	sqlDB, err := p.DB.DB()
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	stats := sqlDB.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}
