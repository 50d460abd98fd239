package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/events"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const DefaultReconcileInterval = 15 * time.Second

// UnitGateway is the slice of the remote API the reconciler needs.
type UnitGateway interface {
	ListUnits(ctx context.Context, kind models.UnitKind) ([]models.SeatingUnit, error)
	SetUnitStatus(ctx context.Context, kind models.UnitKind, id int, status models.UnitStatus) error
}

type APIGateway struct {
	Client *apiclient.Client
}

func (g APIGateway) ListUnits(ctx context.Context, kind models.UnitKind) ([]models.SeatingUnit, error) {
	units, err := g.Client.Units(kind)
	if err != nil {
		return nil, err
	}
	return units.List(ctx)
}

func (g APIGateway) SetUnitStatus(ctx context.Context, kind models.UnitKind, id int, status models.UnitStatus) error {
	units, err := g.Client.Units(kind)
	if err != nil {
		return err
	}
	return units.SetStatus(ctx, id, status)
}

// RunSummary describes one reconciliation pass.
type RunSummary struct {
	StartedAt  time.Time                  `json:"started_at"`
	Duration   time.Duration              `json:"duration"`
	Units      int                        `json:"units"`
	Changes    []models.StatusChange      `json:"changes"`
	Suppressed int                        `json:"suppressed"`
	Failed     int                        `json:"failed"`
	Skipped    map[models.UnitKind]string `json:"skipped,omitempty"`
}

// StatusReconciler moves tables and rooms into and out of reserved as
// their reservation windows open and close.
type StatusReconciler struct {
	Gateway    UnitGateway
	Guard      PushGuard
	Publishers events.Multi
	Kinds      []models.UnitKind
	Interval   time.Duration
	Location   *time.Location
	Now        func() time.Time

	runMu sync.Mutex

	mu       sync.RWMutex
	snapshot map[models.UnitKind][]models.SeatingUnit
	last     RunSummary

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewStatusReconciler(gateway UnitGateway, guard PushGuard, publishers ...events.Publisher) *StatusReconciler {
	if guard == nil {
		guard = NewMemoryGuard(DefaultPushWindow)
	}
	return &StatusReconciler{
		Gateway:    gateway,
		Guard:      guard,
		Publishers: publishers,
		Kinds:      []models.UnitKind{models.KindTable, models.KindRoom},
		Interval:   DefaultReconcileInterval,
		Location:   time.Local,
		Now:        time.Now,
		snapshot:   make(map[models.UnitKind][]models.SeatingUnit),
	}
}

// Start runs a pass immediately and then every Interval until ctx is done
// or Stop is called. Starting a running reconciler is a no-op.
func (sr *StatusReconciler) Start(ctx context.Context) {
	sr.lifeMu.Lock()
	defer sr.lifeMu.Unlock()
	if sr.cancel != nil {
		return
	}

	interval := sr.Interval
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	sr.cancel = cancel
	sr.done = done

	go func() {
		defer close(done)
		sr.RunOnce(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sr.RunOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (sr *StatusReconciler) Stop() {
	sr.lifeMu.Lock()
	defer sr.lifeMu.Unlock()
	if sr.cancel == nil {
		return
	}
	sr.cancel()
	<-sr.done
	sr.cancel = nil
	sr.done = nil
}

// RunOnce evaluates every unit of every configured kind. Passes never
// overlap; a manual run waits for the ticker's pass and vice versa.
func (sr *StatusReconciler) RunOnce(ctx context.Context) RunSummary {
	sr.runMu.Lock()
	defer sr.runMu.Unlock()

	started := time.Now()
	now := sr.Now().In(sr.Location)
	summary := RunSummary{StartedAt: now, Changes: []models.StatusChange{}}

	for _, kind := range sr.Kinds {
		if ctx.Err() != nil {
			break
		}
		units, err := sr.Gateway.ListUnits(ctx, kind)
		if err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"kind":  kind,
				"error": err.Error(),
			}).Warn("skipping reconcile tick")
			if summary.Skipped == nil {
				summary.Skipped = make(map[models.UnitKind]string)
			}
			summary.Skipped[kind] = err.Error()
			continue
		}
		summary.Units += len(units)

		for i := range units {
			units[i].Kind = kind
			change, pushed := sr.reconcileUnit(ctx, &units[i], now, &summary)
			if pushed {
				summary.Changes = append(summary.Changes, change)
			}
		}

		sr.mu.Lock()
		sr.snapshot[kind] = units
		sr.mu.Unlock()
	}

	summary.Duration = time.Since(started)
	if len(summary.Changes) > 0 {
		utils.InfoLogger.Printf("Reconciled %d units, pushed %d status changes", summary.Units, len(summary.Changes))
	}

	sr.mu.Lock()
	sr.last = summary
	sr.mu.Unlock()
	return summary
}

// reconcileUnit applies the decision to unit in place before the remote
// write. A failed write is logged and the local value is kept.
func (sr *StatusReconciler) reconcileUnit(ctx context.Context, unit *models.SeatingUnit, now time.Time, summary *RunSummary) (models.StatusChange, bool) {
	decision := Decide(*unit, now)
	if !decision.Change {
		return models.StatusChange{}, false
	}

	key := UnitKey(unit.Kind, unit.ID)
	allowed, err := sr.Guard.Allow(ctx, key, decision.To, now)
	if err != nil {
		utils.ErrorLogger.Printf("Push guard unavailable for %s, pushing anyway: %v", key, err)
		allowed = true
	}
	if !allowed {
		summary.Suppressed++
		return models.StatusChange{}, false
	}

	unit.Status = decision.To

	change := models.StatusChange{
		Kind:       unit.Kind,
		UnitID:     unit.ID,
		UnitNumber: unit.Number,
		From:       decision.From,
		To:         decision.To,
		Reason:     decision.Reason,
		ChangedAt:  now,
	}
	if err := sr.Gateway.SetUnitStatus(ctx, unit.Kind, unit.ID, decision.To); err != nil {
		summary.Failed++
		utils.ErrorLogger.WithFields(logrus.Fields{
			"unit":  key,
			"to":    decision.To,
			"error": err.Error(),
		}).Error("failed to push unit status")
	} else {
		change.Persisted = true
	}

	if err := sr.Publishers.PublishStatusChange(ctx, change); err != nil {
		utils.ErrorLogger.Printf("Error publishing status change for %s: %v", key, err)
	}
	return change, true
}

// Snapshot returns the units as last seen, with pushed statuses applied.
func (sr *StatusReconciler) Snapshot(kind models.UnitKind) []models.SeatingUnit {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	units := sr.snapshot[kind]
	out := make([]models.SeatingUnit, len(units))
	copy(out, units)
	return out
}

func (sr *StatusReconciler) LastRun() RunSummary {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.last
}
