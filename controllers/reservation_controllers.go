package controllers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// ReservationController handles table reservations and room reservations;
// the route group decides which.
type ReservationController struct {
	API *apiclient.Client
}

func NewReservationController(api *apiclient.Client) *ReservationController {
	return &ReservationController{API: api}
}

type reservationRequest struct {
	Unit  int    `json:"unit" binding:"required,gt=0"`
	Date  string `json:"date" binding:"required"`
	Time  string `json:"time" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

type reservationPatch struct {
	Date  *string `json:"date,omitempty"`
	Time  *string `json:"time,omitempty"`
	Name  *string `json:"name,omitempty" binding:"omitempty,min=1"`
	Phone *string `json:"phone,omitempty" binding:"omitempty,min=1"`
}

func (rc *ReservationController) reservations(c *gin.Context) (*apiclient.Resource[models.Reservation], bool) {
	r, err := rc.API.Reservations(kindFrom(c))
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return nil, false
	}
	return r, true
}

// GetAllReservations sorts by date and start time. ?date= and ?unit=
// narrow the list.
func (rc *ReservationController) GetAllReservations(c *gin.Context) {
	res, ok := rc.reservations(c)
	if !ok {
		return
	}
	list, err := res.List(c.Request.Context())
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	date := c.Query("date")
	unit := queryInt(c, "unit")
	out := make([]models.Reservation, 0, len(list))
	for _, r := range list {
		if date != "" && r.Date != date {
			continue
		}
		if unit > 0 && r.UnitID() != unit {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return windowStart(out[i].Time) < windowStart(out[j].Time)
	})
	utils.RespondJSON(c, http.StatusOK, "List of reservations", out)
}

func (rc *ReservationController) GetReservationByID(c *gin.Context) {
	res, ok := rc.reservations(c)
	if !ok {
		return
	}
	getOne(c, res, "Reservation detail")
}

func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	window, err := services.CanonicalReservationWindow(req.Date, strings.ReplaceAll(req.Time, " ", ""))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	req.Time = window
	res, ok := rc.reservations(c)
	if !ok {
		return
	}

	reservation := models.Reservation{
		Date:  req.Date,
		Time:  req.Time,
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
	}
	if kindFrom(c) == models.KindRoom {
		reservation.Room = req.Unit
	} else {
		reservation.Table = req.Unit
	}

	if created, ok := createOne(c, res, reservation, "Reservation created"); ok {
		utils.InfoLogger.Printf("Reservation %d created for %s unit %d on %s %s",
			created.ID, kindFrom(c), created.UnitID(), created.Date, created.Time)
	}
}

// UpdateReservation revalidates the window against the stored values when
// only one of date or time changes.
func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req reservationPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	res, ok := rc.reservations(c)
	if !ok {
		return
	}

	if req.Date != nil || req.Time != nil {
		current, err := res.Get(c.Request.Context(), id)
		if err != nil {
			utils.RespondUpstreamError(c, err)
			return
		}
		date, window := current.Date, current.Time
		if req.Date != nil {
			date = *req.Date
		}
		if req.Time != nil {
			window = strings.ReplaceAll(*req.Time, " ", "")
		}
		canonical, err := services.CanonicalReservationWindow(date, window)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		if req.Time != nil {
			req.Time = &canonical
		}
	}

	patchOne(c, res, id, req, "Reservation updated")
}

func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	res, ok := rc.reservations(c)
	if !ok {
		return
	}
	if id, ok := deleteOne(c, res, "Reservation deleted"); ok {
		utils.InfoLogger.Printf("Reservation %d deleted", id)
	}
}

// windowStart orders ranges by start minute so rows stored before windows
// were zero-padded still sort correctly. Unparseable ranges go last.
func windowStart(raw string) int {
	r, err := services.ParseTimeRange(raw)
	if err != nil {
		return 24 * 60
	}
	return r.Start
}
