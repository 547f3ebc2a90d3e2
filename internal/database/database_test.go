package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"dailyprompt/internal/config"
	"dailyprompt/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                      "test",
		DBDriver:                 "sqlite",
		TestDatabaseURL:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		DBMaxOpenConns:           1,
		DBMaxIdleConns:           1,
		DBConnMaxLifetimeMinutes: 15,
	}
}

func TestConnect_SQLiteMigratesAndCloses(t *testing.T) {
	db, err := Connect(sqliteConfig(t))
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Prompt{}))
	assert.True(t, db.Migrator().HasTable(&models.Answer{}))

	require.NoError(t, Ping(context.Background(), db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, Close(db))
	assert.Error(t, Ping(context.Background(), db))
}

func TestConnect_UnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DBDriver = "oracle"

	_, err := Connect(cfg)
	assert.Error(t, err)
}

func TestSetup_ClosesHandleOnFailure(t *testing.T) {
	cfg := sqliteConfig(t)
	dialector, err := Dialector(cfg.DBDriver, cfg.DSN())
	require.NoError(t, err)

	db, err := gorm.Open(dialector, GormConfig())
	require.NoError(t, err)
	// A second registration of the tracing plugin makes setup fail.
	require.NoError(t, db.Use(otelgorm.NewPlugin()))

	err = setup(db, cfg)
	require.Error(t, err)
	assert.Error(t, Ping(context.Background(), db), "pool must be closed")
}

func TestMigrate_DuplicateUsernameTranslated(t *testing.T) {
	db, err := Connect(sqliteConfig(t))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Create(&models.User{Username: "alice"}).Error)
	err = db.Create(&models.User{Username: "alice"}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestMigrate_SingleActivePromptIndex(t *testing.T) {
	db, err := Connect(sqliteConfig(t))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Create(&models.Prompt{Content: "first", ActivePrompt: true}).Error)
	require.NoError(t, db.Create(&models.Prompt{Content: "inactive one"}).Error)
	require.NoError(t, db.Create(&models.Prompt{Content: "inactive two"}).Error)

	err = db.Create(&models.Prompt{Content: "second", ActivePrompt: true}).Error
	assert.Error(t, err, "a second active prompt must be rejected")
}

func TestClose_NilIsNoop(t *testing.T) {
	assert.NoError(t, Close(nil))
	assert.Error(t, Ping(context.Background(), nil))
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Empty(t, buf.String(), "fast queries are not logged at warn level")

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "record not found is ignored")

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT slow", 1 }, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT broken", 0 }, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	silent := l.LogMode(logger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT broken", 0 }, errors.New("boom"))
	assert.Empty(t, buf.String())
}
