package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type widget struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return conn
}

func TestBaseDBBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	assert.Equal(t, "v", base.DB(ctx).Statement.Context.Value(key{}))
	assert.Same(t, db, base.DB(nil))
}

func TestPageCountsAndWindows(t *testing.T) {
	db := newTestDB(t)
	for i := 1; i <= 5; i++ {
		require.NoError(t, db.Create(&widget{ID: i, Name: "w"}).Error)
	}

	var rows []widget
	total, err := Page(db.Model(&widget{}).Where("id > ?", 1), pagination.Params{Skip: 1, Limit: 2}, &rows, func(q *gorm.DB) *gorm.DB {
		return q.Order("id DESC")
	})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, rows, 2)
	assert.Equal(t, 4, rows[0].ID)
	assert.Equal(t, 3, rows[1].ID)
}
