package models

import (
	"time"
)

// Keys stored per device in LocalValue.
const (
	KeyCart        = "cart"
	KeyTableNumber = "tableNumber"
	KeyUnitKind    = "unitKind"
	KeyLastOrder   = "lastOrder"
)

// LocalValue is the console-side stand-in for browser storage: one raw JSON
// value per device and key.
type LocalValue struct {
	ID        uint      `gorm:"primaryKey"`
	DeviceID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_device_key"`
	Key       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_device_key"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
