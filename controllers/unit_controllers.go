package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/hub"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const ReasonManual = "manual"

// UnitController manages tables, rooms and hotel rooms. The kind comes
// from the route group.
type UnitController struct {
	API           *apiclient.Client
	Hub           *hub.Hub
	Location      *time.Location
	PublicBaseURL string
	Now           func() time.Time
}

func NewUnitController(api *apiclient.Client, h *hub.Hub, loc *time.Location, publicBaseURL string) *UnitController {
	return &UnitController{API: api, Hub: h, Location: loc, PublicBaseURL: publicBaseURL, Now: time.Now}
}

// UnitView is a unit as shown on the admin floor plan.
type UnitView struct {
	models.SeatingUnit
	Kind        models.UnitKind      `json:"kind"`
	Reservation *models.Reservation  `json:"active_reservation,omitempty"`
	Upcoming    []models.Reservation `json:"upcoming_reservations,omitempty"`
	ScanURL     string               `json:"scan_url"`
}

type unitRequest struct {
	Number string `json:"number" binding:"required"`
	Chairs int    `json:"chairs" binding:"gte=0"`
}

type unitPatch struct {
	Number *string `json:"number,omitempty" binding:"omitempty,min=1"`
	Chairs *int    `json:"chairs,omitempty" binding:"omitempty,gte=0"`
}

func (uc *UnitController) units(c *gin.Context) (*apiclient.Units, bool) {
	units, err := uc.API.Units(kindFrom(c))
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return nil, false
	}
	return units, true
}

func (uc *UnitController) now() time.Time {
	return uc.Now().In(uc.Location)
}

func (uc *UnitController) view(unit models.SeatingUnit, now time.Time) UnitView {
	v := UnitView{SeatingUnit: unit, Kind: unit.Kind, ScanURL: uc.scanURL(unit)}
	if r, ok := services.DisplayReservation(unit, now); ok {
		v.Reservation = &r
	}
	v.Upcoming = services.UpcomingReservations(unit, now)
	return v
}

func (uc *UnitController) scanURL(unit models.SeatingUnit) string {
	return fmt.Sprintf("%s/scan/%s/%s", uc.PublicBaseURL, unit.Kind, url.PathEscape(unit.Number))
}

// GetAllUnits lists the units of the group's kind; ?status= filters.
func (uc *UnitController) GetAllUnits(c *gin.Context) {
	units, ok := uc.units(c)
	if !ok {
		return
	}
	list, err := units.List(c.Request.Context())
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	var filter models.UnitStatus
	if raw := c.Query("status"); raw != "" {
		if filter, err = models.ParseStatus(raw); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}

	now := uc.now()
	views := make([]UnitView, 0, len(list))
	for _, unit := range list {
		if filter != "" && unit.Status != filter {
			continue
		}
		views = append(views, uc.view(unit, now))
	}
	utils.RespondJSON(c, http.StatusOK, fmt.Sprintf("List of %s", units.Kind()), views)
}

// GetUnitByID returns the unit with its ETag so the caller can send it back
// as If-Match.
func (uc *UnitController) GetUnitByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	units, ok := uc.units(c)
	if !ok {
		return
	}
	unit, etag, err := units.GetVersioned(c.Request.Context(), id)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	if etag != "" {
		c.Header("ETag", etag)
	}
	utils.RespondJSON(c, http.StatusOK, "Unit detail", uc.view(unit, uc.now()))
}

// CreateUnit always starts a unit as empty.
func (uc *UnitController) CreateUnit(c *gin.Context) {
	var req unitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	units, ok := uc.units(c)
	if !ok {
		return
	}

	unit := models.SeatingUnit{Number: req.Number, Chairs: req.Chairs, Status: models.StatusEmpty}
	created, err := units.Create(c.Request.Context(), unit)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	created.Kind = units.Kind()

	uc.Hub.BroadcastUnitCreate(created)
	utils.InfoLogger.Printf("New %s created: %s (id=%d)", created.Kind, created.Number, created.ID)
	utils.RespondJSON(c, http.StatusCreated, "Unit created successfully", uc.view(created, uc.now()))
}

// UpdateUnit changes number or chair count. Status has its own endpoint.
func (uc *UnitController) UpdateUnit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req unitPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	units, ok := uc.units(c)
	if !ok {
		return
	}
	if updated, ok := patchOne(c, units.Resource, id, req, "Unit updated"); ok {
		utils.InfoLogger.Printf("%s %d updated (number=%s)", units.Kind(), updated.ID, updated.Number)
	}
}

// UpdateUnitStatus is the manual transition used by staff, e.g. ordered ->
// waiting-food. Any status may be set.
func (uc *UnitController) UpdateUnitStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	status, err := models.ParseStatus(body.Status)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	units, ok := uc.units(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	current, err := units.Get(ctx, id)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	fields := map[string]models.UnitStatus{"status": status}
	var updated models.SeatingUnit
	if etag := c.GetHeader("If-Match"); etag != "" {
		updated, err = units.PatchIfMatch(ctx, id, fields, etag)
	} else {
		updated, err = units.Patch(ctx, id, fields)
	}
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	updated.Kind = units.Kind()

	uc.Hub.PublishStatusChange(ctx, models.StatusChange{
		Kind:       updated.Kind,
		UnitID:     updated.ID,
		UnitNumber: updated.Number,
		From:       current.Status,
		To:         status,
		Reason:     ReasonManual,
		Persisted:  true,
		ChangedAt:  uc.now(),
	})
	utils.InfoLogger.Printf("%s %d status changed %s -> %s", updated.Kind, updated.ID, current.Status, status)
	utils.RespondJSON(c, http.StatusOK, "Unit status updated", uc.view(updated, uc.now()))
}

func (uc *UnitController) DeleteUnit(c *gin.Context) {
	units, ok := uc.units(c)
	if !ok {
		return
	}
	if id, ok := deleteOne(c, units.Resource, "Unit deleted"); ok {
		uc.Hub.BroadcastUnitDelete(units.Kind(), id)
		utils.InfoLogger.Printf("%s %d deleted", units.Kind(), id)
	}
}

// GetUnitQR renders the customer scan link as a PNG. ?size= sets the edge
// in pixels.
func (uc *UnitController) GetUnitQR(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	units, ok := uc.units(c)
	if !ok {
		return
	}
	unit, err := units.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	size := queryInt(c, "size")
	if size < 128 || size > 1024 {
		size = 256
	}
	png, err := qrcode.Encode(uc.scanURL(unit), qrcode.Medium, size)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s-%s.png"`, unit.Kind, unit.Number))
	c.Data(http.StatusOK, "image/png", png)
}
