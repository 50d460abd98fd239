package cart

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
)

func setupMySQLKV(t *testing.T) (*GormKV, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return NewGormKV(db), mock
}

func TestGormKVMySQLUpsert(t *testing.T) {
	kv, mock := setupMySQLKV(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `local_values`") + ".*ON DUPLICATE KEY UPDATE").
		WithArgs("dev", models.KeyCart, "[1]", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, kv.Set(context.Background(), "dev", models.KeyCart, "[1]"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormKVMySQLMissingKey(t *testing.T) {
	kv, mock := setupMySQLKV(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `local_values` WHERE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_id", "key", "value"}))

	_, ok, err := kv.Get(context.Background(), "dev", models.KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormKVSqliteRoundTrip(t *testing.T) {
	kv := setupTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "dev", models.KeyTableNumber, "4"))
	require.NoError(t, kv.Set(ctx, "dev", models.KeyTableNumber, "5"))

	v, ok, err := kv.Get(ctx, "dev", models.KeyTableNumber)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "5", v)

	require.NoError(t, kv.Delete(ctx, "dev", models.KeyTableNumber))
	_, ok, err = kv.Get(ctx, "dev", models.KeyTableNumber)
	require.NoError(t, err)
	assert.False(t, ok)
}
