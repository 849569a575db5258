package storage_test

import (
	"context"
	"testing"

	"clinic_queue/internal/config"
	"clinic_queue/internal/models"
	"clinic_queue/internal/storage"
	"clinic_queue/internal/storage/storagetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesSchema(t *testing.T) {
	db := storagetest.Open(t)

	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "table for %T missing", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Queue{}, "idx_queues_single_active"))
	assert.NoError(t, storage.Ping(context.Background(), db))
}

func TestSingleActiveQueueIndex(t *testing.T) {
	db := storagetest.Open(t)

	require.NoError(t, db.Create(&models.Queue{Name: "Default Queue", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Queue{Name: "Archive", IsActive: false}).Error)
	require.NoError(t, db.Create(&models.Queue{Name: "Archive 2", IsActive: false}).Error)

	err := db.Create(&models.Queue{Name: "Second", IsActive: true}).Error
	assert.Error(t, err, "second active queue must violate the partial unique index")
}

func TestSingleActiveQueueIndexSkipsDeletedRows(t *testing.T) {
	db := storagetest.Open(t)

	old := models.Queue{Name: "Default Queue", IsActive: true}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Delete(&old).Error)

	assert.NoError(t, db.Create(&models.Queue{Name: "Default Queue", IsActive: true}).Error)
}

func TestInitRedis(t *testing.T) {
	ctx := context.Background()

	client, err := storage.InitRedis(ctx, &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	client, err = storage.InitRedis(ctx, &config.Config{RedisAddr: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()
	assert.NoError(t, client.Ping(ctx).Err())

	addr := mr.Addr()
	mr.Close()
	_, err = storage.InitRedis(ctx, &config.Config{RedisAddr: addr})
	assert.Error(t, err)
}
