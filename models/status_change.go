package models

import (
	"time"
)

// StatusChange records a transition pushed by the reconciler. It is both the
// persisted history row and the payload sent to the event sinks.
type StatusChange struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Kind       UnitKind   `gorm:"type:varchar(20);not null;index:idx_kind_unit" json:"kind"`
	UnitID     int        `gorm:"not null;index:idx_kind_unit" json:"unit_id"`
	UnitNumber string     `gorm:"type:varchar(50)" json:"unit_number"`
	From       UnitStatus `gorm:"type:varchar(20);not null" json:"from"`
	To         UnitStatus `gorm:"type:varchar(20);not null" json:"to"`
	Reason     string     `gorm:"type:varchar(100)" json:"reason"`
	Persisted  bool       `gorm:"default:false" json:"persisted"`
	ChangedAt  time.Time  `gorm:"not null;index" json:"changed_at"`
}
