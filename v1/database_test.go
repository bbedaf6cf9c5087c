package v1

import (
	"path/filepath"
	"testing"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabaseConfig(t *testing.T) {
	t.Run("defaults to SQLite", func(t *testing.T) {
		config := NewDatabaseConfig()
		assert.Equal(t, DriverSQLite, config.Driver)
		assert.Equal(t, "asociacion.db", config.SQLitePath)
		assert.Equal(t, 25, config.MaxOpenConns)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("DB_DRIVER", DriverPostgres)
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_NAME", "asociacion_prod")

		config := NewDatabaseConfig()
		assert.Equal(t, DriverPostgres, config.Driver)
		assert.Equal(t, "db.internal", config.Host)
		assert.Equal(t, "asociacion_prod", config.Database)
	})
}

func TestConnectGormDB(t *testing.T) {
	t.Run("connects and migrates a SQLite database", func(t *testing.T) {
		config := NewDatabaseConfig()
		config.Driver = DriverSQLite
		config.SQLitePath = filepath.Join(t.TempDir(), "test.db")

		db, err := ConnectGormDB(config)
		require.NoError(t, err)

		for _, model := range []interface{}{
			&models.Member{},
			&models.Dependent{},
			&models.MembershipRequest{},
			&models.RequestDependent{},
			&models.Activity{},
			&models.Registration{},
			&models.BackupJob{},
		} {
			assert.True(t, db.Migrator().HasTable(model))
		}

		var journalMode string
		require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&journalMode).Error)
		assert.Equal(t, "wal", journalMode)
	})

	t.Run("rejects an unknown driver", func(t *testing.T) {
		config := NewDatabaseConfig()
		config.Driver = "oracle"

		_, err := ConnectGormDB(config)
		assert.ErrorContains(t, err, "unsupported database driver")
	})
}
