package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"SYNC_APP_NAME":                os.Getenv("SYNC_APP_NAME"),
		"SYNC_APP_ENV":                 os.Getenv("SYNC_APP_ENV"),
		"SYNC_DATABASE_HOST":           os.Getenv("SYNC_DATABASE_HOST"),
		"SYNC_DATABASE_PORT":           os.Getenv("SYNC_DATABASE_PORT"),
		"SYNC_DATABASE_USER":           os.Getenv("SYNC_DATABASE_USER"),
		"SYNC_DATABASE_PASSWORD":       os.Getenv("SYNC_DATABASE_PASSWORD"),
		"SYNC_DATABASE_DBNAME":         os.Getenv("SYNC_DATABASE_DBNAME"),
		"SYNC_DATABASE_SSLMODE":        os.Getenv("SYNC_DATABASE_SSLMODE"),
		"SYNC_DATABASE_MAX_OPEN_CONNS": os.Getenv("SYNC_DATABASE_MAX_OPEN_CONNS"),
		"SYNC_DATABASE_MAX_IDLE_CONNS": os.Getenv("SYNC_DATABASE_MAX_IDLE_CONNS"),
		"SYNC_SCHEDULER_POOL_SIZE":     os.Getenv("SYNC_SCHEDULER_POOL_SIZE"),
		"SYNC_SOURCE_API_PAGE_SIZE":    os.Getenv("SYNC_SOURCE_API_PAGE_SIZE"),
		"SYNC_VAULT_PASSPHRASE":        os.Getenv("SYNC_VAULT_PASSPHRASE"),
		"SYNC_VAULT_SALT":              os.Getenv("SYNC_VAULT_SALT"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "syncbridge", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "syncbridge", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 5, cfg.Scheduler.PoolSize)
		assert.Equal(t, 5*time.Second, cfg.Scheduler.PollInterval)
		assert.Equal(t, 30*time.Minute, cfg.Scheduler.StuckCutoff)
		assert.Equal(t, time.Minute, cfg.Scheduler.TickInterval)
		assert.Equal(t, 100, cfg.SourceAPI.PageSize)
		assert.Equal(t, 3, cfg.SourceAPI.MaxAttempts)
		assert.Equal(t, 5*time.Minute, cfg.Cache.SnapshotTTL)
	})

	t.Run("loads values from environment variables with SYNC prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("SYNC_APP_NAME", "test-app")
		os.Setenv("SYNC_APP_ENV", "testing")
		os.Setenv("SYNC_DATABASE_HOST", "testdb.local")
		os.Setenv("SYNC_DATABASE_PORT", "5433")
		os.Setenv("SYNC_DATABASE_USER", "testuser")
		os.Setenv("SYNC_DATABASE_PASSWORD", "testpass")
		os.Setenv("SYNC_DATABASE_DBNAME", "testdb")
		os.Setenv("SYNC_DATABASE_SSLMODE", "require")
		os.Setenv("SYNC_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("SYNC_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("SYNC_SCHEDULER_POOL_SIZE", "8")
		os.Setenv("SYNC_SOURCE_API_PAGE_SIZE", "250")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 8, cfg.Scheduler.PoolSize)
		assert.Equal(t, 250, cfg.SourceAPI.PageSize)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("SYNC_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("SYNC_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("SYNC_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("SYNC_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"SYNC_APP_ENV":           os.Getenv("SYNC_APP_ENV"),
		"SYNC_VAULT_PASSPHRASE":  os.Getenv("SYNC_VAULT_PASSPHRASE"),
		"SYNC_VAULT_SALT":        os.Getenv("SYNC_VAULT_SALT"),
		"SYNC_DATABASE_PASSWORD": os.Getenv("SYNC_DATABASE_PASSWORD"),
		"SYNC_DATABASE_SSLMODE":  os.Getenv("SYNC_DATABASE_SSLMODE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	// Helper to set valid production base config
	setValidProductionBase := func() {
		os.Setenv("SYNC_APP_ENV", "production")
		os.Setenv("SYNC_VAULT_PASSPHRASE", "this-is-a-very-secure-vault-passphrase-32chars")
		os.Setenv("SYNC_VAULT_SALT", "per-deployment-salt")
		os.Setenv("SYNC_DATABASE_PASSWORD", "secure-password")
		os.Setenv("SYNC_DATABASE_SSLMODE", "require")
	}

	t.Run("requires vault.passphrase in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("SYNC_VAULT_PASSPHRASE")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault.passphrase is required in production")
	})

	t.Run("requires vault.passphrase at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("SYNC_VAULT_PASSPHRASE", "short-passphrase")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault.passphrase must be at least 32 characters")
	})

	t.Run("requires vault.salt in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("SYNC_VAULT_SALT")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault.salt is required in production")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("SYNC_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("SYNC_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.local", Port: 6380}
	assert.Equal(t, "redis.local:6380", cfg.Addr())
}
