// Package testutil provides common test utilities for the sync engine.
// It contains helper functions for setting up test databases and creating
// domain fixtures shared across test packages.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/domain/tenant"
	"github.com/syncbridge/backend/internal/infrastructure/persistence"
)

// MockDB wraps a GORM database with sqlmock for SQL-level assertions.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a new mock database for testing.
// The caller is responsible for calling Close() when done.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 mockDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to open GORM with sqlmock")

	return &MockDB{
		DB:    db,
		Mock:  mock,
		SqlDB: mockDB,
	}
}

// Close closes the underlying mock connection.
func (m *MockDB) Close() {
	if m.SqlDB != nil {
		m.SqlDB.Close()
	}
}

// ExpectationsMet asserts that all sqlmock expectations were satisfied.
func (m *MockDB) ExpectationsMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet sqlmock expectations")
}

// NewSQLiteDB opens an in-memory sqlite database with the full schema
// migrated. Suitable for store-level tests that do not depend on PostgreSQL
// specifics.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to open sqlite")

	require.NoError(t, persistence.AutoMigrate(db), "Failed to migrate schema")

	return db
}

// NewTestTenant returns an active tenant with placeholder endpoints.
func NewTestTenant(t *testing.T) *tenant.Tenant {
	t.Helper()

	tn, err := tenant.NewTenant("Test Tenant", "https://source.example.com", "https://dest.example.com")
	require.NoError(t, err)
	return tn
}

// NewTestJob returns a pending job with opaque credential blobs.
func NewTestJob(t *testing.T, tenantID uuid.UUID, syncType sync.SyncType) *sync.Job {
	t.Helper()

	job, err := sync.NewJob(tenantID, syncType, "enc-source-blob", "enc-dest-blob")
	require.NoError(t, err)
	return job
}

// NewTestAutoMapping returns an ACTIVE auto-provisioned mapping.
func NewTestAutoMapping(t *testing.T, tenantID uuid.UUID, kind mapping.EntityKind, sourceID, destID string) *mapping.EntityMapping {
	t.Helper()

	m, err := mapping.NewAutoMapping(tenantID, kind, sourceID, destID)
	require.NoError(t, err)
	return m
}
