package events

import (
	"context"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
)

// History persists status changes so the dashboard can show what the
// reconciler did.
type History struct {
	DB *gorm.DB
}

const maxHistoryLimit = 500

func NewHistory(db *gorm.DB) *History {
	return &History{DB: db}
}

func (h *History) PublishStatusChange(ctx context.Context, change models.StatusChange) error {
	change.ID = 0
	return h.DB.WithContext(ctx).Create(&change).Error
}

func (h *History) Recent(ctx context.Context, kind models.UnitKind, unitID, limit int) ([]models.StatusChange, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	q := h.DB.WithContext(ctx).Order("changed_at DESC").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if unitID > 0 {
		q = q.Where("unit_id = ?", unitID)
	}
	var changes []models.StatusChange
	if err := q.Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}
