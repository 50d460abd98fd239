package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/hub"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// BasketController is the staff view of placed orders.
type BasketController struct {
	API         *apiclient.Client
	Hub         *hub.Hub
	ServiceRate float64
	Location    *time.Location
}

func NewBasketController(api *apiclient.Client, h *hub.Hub, serviceRate float64, loc *time.Location) *BasketController {
	return &BasketController{API: api, Hub: h, ServiceRate: serviceRate, Location: loc}
}

type basketPatch struct {
	Note  *string              `json:"note,omitempty"`
	Items []services.OrderLine `json:"items,omitempty"`
}

func (bc *BasketController) baskets(c *gin.Context) (*apiclient.Resource[models.Basket], bool) {
	r, err := bc.API.Baskets(kindFrom(c))
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return nil, false
	}
	return r, true
}

// GetAllBaskets lists newest first; ?unit= narrows to one table or room.
func (bc *BasketController) GetAllBaskets(c *gin.Context) {
	res, ok := bc.baskets(c)
	if !ok {
		return
	}
	list, err := res.List(c.Request.Context())
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of baskets", basketsForUnit(list, queryInt(c, "unit")))
}

func (bc *BasketController) GetBasketByID(c *gin.Context) {
	res, ok := bc.baskets(c)
	if !ok {
		return
	}
	getOne(c, res, "Basket detail")
}

// UpdateBasket changes the note and, when items are sent, re-prices the
// basket at current product prices.
func (bc *BasketController) UpdateBasket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req basketPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	res, ok := bc.baskets(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	fields := map[string]interface{}{}
	if req.Note != nil {
		fields["note"] = *req.Note
	}
	if len(req.Items) > 0 {
		current, err := res.Get(ctx, id)
		if err != nil {
			utils.RespondUpstreamError(c, err)
			return
		}
		catalog, err := loadCatalog(ctx, bc.API)
		if err != nil {
			utils.RespondUpstreamError(c, err)
			return
		}
		unit := models.SeatingUnit{ID: current.UnitID(), Kind: kindFrom(c)}
		repriced, err := services.BuildBasket(unit, req.Items, catalog, bc.ServiceRate, current.Note)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		fields["items"] = repriced.Items
		fields["service_cost"] = repriced.ServiceCost
		fields["total_cost"] = repriced.TotalCost
	}
	if len(fields) == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("nothing to update"))
		return
	}

	if updated, ok := patchOne(c, res, id, fields, "Basket updated"); ok {
		bc.Hub.BroadcastBasketUpdate(kindFrom(c), updated)
	}
}

func (bc *BasketController) DeleteBasket(c *gin.Context) {
	res, ok := bc.baskets(c)
	if !ok {
		return
	}
	if id, ok := deleteOne(c, res, "Basket deleted"); ok {
		utils.InfoLogger.Printf("Basket %d deleted", id)
	}
}

// GetBasketReceipt renders the basket as a PDF receipt.
func (bc *BasketController) GetBasketReceipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, ok := bc.baskets(c)
	if !ok {
		return
	}
	basket, err := res.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	writeReceipt(c, bc.API, kindFrom(c), basket, bc.Location)
}

// writeReceipt is shared with the customer order view.
func writeReceipt(c *gin.Context, api *apiclient.Client, kind models.UnitKind, basket models.Basket, loc *time.Location) {
	ctx := c.Request.Context()
	catalog, err := loadCatalog(ctx, api)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	number := fmt.Sprintf("%d", basket.UnitID())
	if units, err := api.Units(kind); err == nil {
		if unit, err := units.Get(ctx, basket.UnitID()); err == nil {
			number = unit.Number
		}
	}

	pdf, err := renderReceipt(newReceiptData(basket, kind, number, catalog, localeFrom(c), loc))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="receipt-%d.pdf"`, basket.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func loadCatalog(ctx context.Context, api *apiclient.Client) (map[int]models.Product, error) {
	products, err := api.Products().List(ctx)
	if err != nil {
		return nil, err
	}
	return services.CatalogByID(products), nil
}

func basketsForUnit(list []models.Basket, unit int) []models.Basket {
	out := make([]models.Basket, 0, len(list))
	for _, b := range list {
		if unit > 0 && b.UnitID() != unit {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt.Time) {
			return out[i].CreatedAt.After(out[j].CreatedAt.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
