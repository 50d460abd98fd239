package events

import (
	"context"
	"errors"

	"github.com/yeremiapane/restaurant-pos/models"
)

// Publisher receives every status transition the reconciler pushes.
type Publisher interface {
	PublishStatusChange(ctx context.Context, change models.StatusChange) error
}

// Multi fans a change out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) PublishStatusChange(ctx context.Context, change models.StatusChange) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishStatusChange(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
