package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/events"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type AdminController struct {
	API        *apiclient.Client
	Reconciler *services.StatusReconciler
	History    *events.History
}

func NewAdminController(api *apiclient.Client, reconciler *services.StatusReconciler, history *events.History) *AdminController {
	return &AdminController{API: api, Reconciler: reconciler, History: history}
}

type kindStats struct {
	Total    int                       `json:"total"`
	ByStatus map[models.UnitStatus]int `json:"by_status"`
}

// GetDashboardStats counts units per status for every kind.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	kinds := []models.UnitKind{models.KindTable, models.KindRoom, models.KindHotelRoom}
	results := make([]kindStats, len(kinds))

	g, ctx := errgroup.WithContext(c.Request.Context())
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			units, err := ac.API.Units(kind)
			if err != nil {
				return err
			}
			list, err := units.List(ctx)
			if err != nil {
				return err
			}
			results[i] = countStatuses(list)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	stats := make(map[models.UnitKind]kindStats, len(kinds))
	for i, kind := range kinds {
		stats[kind] = results[i]
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

func countStatuses(units []models.SeatingUnit) kindStats {
	s := kindStats{Total: len(units), ByStatus: make(map[models.UnitStatus]int, len(models.AllStatuses))}
	for _, st := range models.AllStatuses {
		s.ByStatus[st] = 0
	}
	for _, u := range units {
		s.ByStatus[u.Status]++
	}
	return s
}

// GetReconcilerStatus returns the last pass and recent history. ?kind= and
// ?unit= filter the history.
func (ac *AdminController) GetReconcilerStatus(c *gin.Context) {
	var kind models.UnitKind
	if raw := c.Query("kind"); raw != "" {
		parsed, err := models.ParseUnitKind(raw)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		kind = parsed
	}

	history, err := ac.History.Recent(c.Request.Context(), kind, queryInt(c, "unit"), queryInt(c, "limit"))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reconciler status", gin.H{
		"interval": ac.Reconciler.Interval.String(),
		"kinds":    ac.Reconciler.Kinds,
		"last_run": ac.Reconciler.LastRun(),
		"history":  history,
	})
}

// RunReconciler runs a pass now and returns its summary. The pass outlives
// a disconnected client so recorded transitions are always pushed.
func (ac *AdminController) RunReconciler(c *gin.Context) {
	summary := ac.Reconciler.RunOnce(context.WithoutCancel(c.Request.Context()))
	utils.InfoLogger.Printf("Manual reconcile: %d units, %d changes", summary.Units, len(summary.Changes))
	utils.RespondJSON(c, http.StatusOK, "Reconcile pass finished", summary)
}
