package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"carlist/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	db, err := Open(Options{Path: filepath.Join(t.TempDir(), "data", "cars.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestOpen_NoStoreConfigured(t *testing.T) {
	db, err := Open(Options{})
	assert.Nil(t, db)
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestBootstrap_CreatesSchemaOnce(t *testing.T) {
	db := openTestDB(t)

	created, err := Bootstrap(db)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, db.Migrator().HasTable("car_listings"))

	require.NoError(t, db.Create(&domain.Listing{
		Title: "t", Make: "m", Model: "m", Year: "2000", Mileage: "1", Price: "1",
		ContactEmail: "a@b.com", DatePosted: domain.NewTimestamp(time.Now()),
	}).Error)

	created, err = Bootstrap(db)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&domain.Listing{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "existing store must be left untouched")
}

func TestInitSchema_ClearsExistingRows(t *testing.T) {
	db := openTestDB(t)
	_, err := Bootstrap(db)
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.Listing{
		Title: "t", Make: "m", Model: "m", Year: "2000", Mileage: "1", Price: "1",
		ContactEmail: "a@b.com", DatePosted: domain.NewTimestamp(time.Now()),
	}).Error)

	require.NoError(t, InitSchema(db))

	var count int64
	require.NoError(t, db.Model(&domain.Listing{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("DROP TABLE x;\n\nCREATE TABLE x (a INT);\n  ;")
	assert.Equal(t, []string{"DROP TABLE x", "CREATE TABLE x (a INT)"}, stmts)
}

func TestConn_LazyAcquireAndIdempotentRelease(t *testing.T) {
	db := openTestDB(t)
	_, err := Bootstrap(db)
	require.NoError(t, err)

	conn := NewConn(context.Background(), db)
	assert.False(t, conn.Acquired())

	session, err := conn.DB()
	require.NoError(t, err)
	assert.True(t, conn.Acquired())

	again, err := conn.DB()
	require.NoError(t, err)
	assert.Same(t, session, again)

	var count int64
	require.NoError(t, session.Model(&domain.Listing{}).Count(&count).Error)

	require.NoError(t, conn.Release())
	assert.False(t, conn.Acquired())
	require.NoError(t, conn.Release())

	_, err = conn.DB()
	assert.ErrorIs(t, err, ErrConnReleased)
}

func TestConn_ReleaseWithoutAcquire(t *testing.T) {
	db := openTestDB(t)
	conn := NewConn(context.Background(), db)
	assert.NoError(t, conn.Release())
	assert.NoError(t, conn.Release())
}

func TestConn_ReturnsConnectionToPool(t *testing.T) {
	db := openTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	for i := 0; i < 3; i++ {
		conn := NewConn(context.Background(), db)
		session, err := conn.DB()
		require.NoError(t, err)
		require.NoError(t, session.Exec("SELECT 1").Error)
		require.NoError(t, conn.Release())
	}
	assert.Equal(t, 0, sqlDB.Stats().InUse)
}

func TestTimestamp_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	_, err := Bootstrap(db)
	require.NoError(t, err)

	posted := domain.NewTimestamp(time.Date(2024, 3, 9, 14, 5, 7, 999, time.UTC))
	l := domain.Listing{
		Title: "t", Make: "m", Model: "m", Year: "2000", Mileage: "1", Price: "1",
		ContactEmail: "a@b.com", DatePosted: posted,
	}
	require.NoError(t, db.Create(&l).Error)

	var raw string
	require.NoError(t, db.Raw("SELECT date_posted FROM car_listings WHERE id = ?", l.ID).Scan(&raw).Error)
	assert.Equal(t, "2024-03-09 14:05:07", raw)

	var got domain.Listing
	require.NoError(t, db.First(&got, l.ID).Error)
	assert.True(t, posted.Equal(got.DatePosted.Time))
}
