package database_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stanondieki/Infera-AI-sub003/internal/config"
	"github.com/stanondieki/Infera-AI-sub003/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "infera.db"),
	}
}

// TestBuildDSN 测试 PostgreSQL DSN 构建
func TestBuildDSN(t *testing.T) {
	dsn := database.BuildDSN(config.DatabaseConfig{
		Host: "db", Port: 5432, User: "infera", Password: "secret", DBName: "tasks", SSLMode: "disable",
	})
	assert.Equal(t, "host=db port=5432 user=infera password=secret dbname=tasks sslmode=disable", dsn)
}

// TestGetPoolConfig 测试连接池默认值
func TestGetPoolConfig(t *testing.T) {
	pool := database.GetPoolConfig(config.DatabaseConfig{Driver: "postgres", MaxOpenConns: 50})
	assert.Equal(t, 50, pool.MaxOpenConns)
	assert.Equal(t, 10, pool.MaxIdleConns)
	assert.Equal(t, 3600, pool.ConnMaxLifetime)

	pool = database.GetPoolConfig(config.DatabaseConfig{Driver: "sqlite", MaxOpenConns: 50})
	assert.Equal(t, 1, pool.MaxOpenConns)
}

// TestConnectAndMigrate 测试连接与迁移
func TestConnectAndMigrate(t *testing.T) {
	db, err := database.Connect(sqliteConfig(t))
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.Migrate(db))
	// 迁移可重复执行
	require.NoError(t, database.Migrate(db))

	for _, table := range []string{"tasks", "task_assignees", "users", "state_history", "review_records", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("tasks", "idx_tasks_status_created_at"))
	assert.True(t, database.CheckHealth(db))
}

// TestConnectWithRetry 测试重试连接
func TestConnectWithRetry(t *testing.T) {
	db, err := database.ConnectWithRetry(sqliteConfig(t), 3, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, database.CheckHealth(db))
	require.NoError(t, database.Close(db))
	assert.False(t, database.CheckHealth(db))

	_, err = database.Open(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

// TestCheckHealthNil 测试空连接
func TestCheckHealthNil(t *testing.T) {
	assert.False(t, database.CheckHealth(nil))
}
