package cart

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/restaurant-pos/models"
)

// KV is per-device string storage, the console's version of browser
// localStorage.
type KV interface {
	Get(ctx context.Context, deviceID, key string) (string, bool, error)
	Set(ctx context.Context, deviceID, key, value string) error
	Delete(ctx context.Context, deviceID, key string) error
}

type GormKV struct {
	DB *gorm.DB
}

func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{DB: db}
}

func (kv *GormKV) Get(ctx context.Context, deviceID, key string) (string, bool, error) {
	var value models.LocalValue
	err := kv.DB.WithContext(ctx).
		Where(&models.LocalValue{DeviceID: deviceID, Key: key}).
		First(&value).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value.Value, true, nil
}

func (kv *GormKV) Set(ctx context.Context, deviceID, key, value string) error {
	row := models.LocalValue{DeviceID: deviceID, Key: key, Value: value}
	return kv.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (kv *GormKV) Delete(ctx context.Context, deviceID, key string) error {
	return kv.DB.WithContext(ctx).
		Where(&models.LocalValue{DeviceID: deviceID, Key: key}).
		Delete(&models.LocalValue{}).Error
}

// MemoryKV keeps values in process; used when no database is configured.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (kv *MemoryKV) Get(_ context.Context, deviceID, key string) (string, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.values[deviceID+"\x00"+key]
	return v, ok, nil
}

func (kv *MemoryKV) Set(_ context.Context, deviceID, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.values[deviceID+"\x00"+key] = value
	return nil
}

func (kv *MemoryKV) Delete(_ context.Context, deviceID, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.values, deviceID+"\x00"+key)
	return nil
}
