package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// Context keys set by middlewares and route groups.
const (
	ContextDeviceID = "device_id"
	ContextUnitKind = "unit_kind"
)

var (
	ErrNoDevice       = errors.New("device session missing")
	ErrNoScope        = errors.New("scan a table or room code first")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrUnitReserved   = errors.New("this seat is reserved right now")
	ErrInvalidID      = errors.New("invalid id")
	ErrUnknownProduct = errors.New("product no longer exists")
)

// WithKind pins the seating-unit kind for a route group.
func WithKind(kind models.UnitKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUnitKind, kind)
		c.Next()
	}
}

func kindFrom(c *gin.Context) models.UnitKind {
	if v, ok := c.Get(ContextUnitKind); ok {
		if kind, ok := v.(models.UnitKind); ok {
			return kind
		}
	}
	return models.KindTable
}

func deviceFrom(c *gin.Context) (string, bool) {
	id := c.GetString(ContextDeviceID)
	return id, id != ""
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("%w: %q", ErrInvalidID, c.Param(name)))
		return 0, false
	}
	return id, true
}

// queryInt returns 0 when the parameter is absent or not a number.
func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
