package database

import (
	"testing"
	"time"

	"gorm.io/gorm/logger"
)

func TestDefaultPoolConfig(t *testing.T) {
	config := DefaultPoolConfig()

	if config.Driver != "sqlite" {
		t.Errorf("Expected Driver to be sqlite, got %s", config.Driver)
	}

	if config.MaxOpenConns != 25 {
		t.Errorf("Expected MaxOpenConns to be 25, got %d", config.MaxOpenConns)
	}

	if config.MaxIdleConns != 10 {
		t.Errorf("Expected MaxIdleConns to be 10, got %d", config.MaxIdleConns)
	}

	if config.ConnMaxLifetime != time.Hour {
		t.Errorf("Expected ConnMaxLifetime to be 1 hour, got %v", config.ConnMaxLifetime)
	}

	if config.ConnMaxIdleTime != time.Minute*30 {
		t.Errorf("Expected ConnMaxIdleTime to be 30 minutes, got %v", config.ConnMaxIdleTime)
	}

	if config.LogLevel != logger.Info {
		t.Errorf("Expected LogLevel to be Info, got %v", config.LogLevel)
	}
}

func TestNewDatabasePool_WithNilConfig(t *testing.T) {
	_, err := NewDatabasePool(nil)

	if err == nil {
		t.Error("Expected error due to empty DSN, got nil")
	}
}

func TestNewDatabasePool_UnsupportedDriver(t *testing.T) {
	config := &PoolConfig{
		Driver: "oracle",
		DSN:    "something",
	}

	_, err := NewDatabasePool(config)
	if err == nil {
		t.Error("Expected error for unsupported driver, got nil")
	}
}

func TestNewDatabasePool_SQLiteInMemory(t *testing.T) {
	config := DefaultPoolConfig()
	config.DSN = ":memory:"
	config.LogLevel = logger.Silent

	pool, err := NewDatabasePool(config)
	if err != nil {
		t.Fatalf("Failed to open in-memory sqlite pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(); err != nil {
		t.Errorf("Expected ping to succeed, got %v", err)
	}

	if !pool.DB.Migrator().HasTable("tasks") {
		t.Error("Expected tasks table to be created on first use")
	}
}

func TestDatabasePool_Stats_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB:     nil,
		config: DefaultPoolConfig(),
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Stats() should handle nil DB gracefully, but got panic: %v", r)
		}
	}()

	stats := pool.Stats()

	if _, hasError := stats["error"]; !hasError {
		t.Error("Expected error in stats when DB is nil")
	}
}

func TestDatabasePool_Stats_WithConnection(t *testing.T) {
	config := DefaultPoolConfig()
	config.DSN = ":memory:"
	config.LogLevel = logger.Silent

	pool, err := NewDatabasePool(config)
	if err != nil {
		t.Fatalf("Failed to open in-memory sqlite pool: %v", err)
	}
	defer pool.Close()

	stats := pool.Stats()

	if _, hasError := stats["error"]; hasError {
		t.Errorf("Expected no error in stats, got %v", stats["error"])
	}

	if stats["max_open_connections"] != 1 {
		t.Errorf("Expected sqlite pool to hold a single connection, got %v", stats["max_open_connections"])
	}
}
