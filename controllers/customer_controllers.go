package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/cart"
	"github.com/yeremiapane/restaurant-pos/hub"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// CustomerController serves the scan-to-order flow. Every handler runs
// behind the device session middleware.
type CustomerController struct {
	API         *apiclient.Client
	Cart        *cart.Store
	Hub         *hub.Hub
	ServiceRate float64
	Location    *time.Location
	Now         func() time.Time
}

func NewCustomerController(api *apiclient.Client, store *cart.Store, h *hub.Hub, serviceRate float64, loc *time.Location) *CustomerController {
	return &CustomerController{API: api, Cart: store, Hub: h, ServiceRate: serviceRate, Location: loc, Now: time.Now}
}

type ProductView struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	PriceLabel  string  `json:"price_label"`
	Time        int     `json:"time"`
	Category    int     `json:"category"`
	IsVegan     bool    `json:"is_vegan"`
	IsHalal     bool    `json:"is_halal"`
	Image       string  `json:"image,omitempty"`
	InCart      bool    `json:"in_cart"`
}

type CategoryView struct {
	ID       int           `json:"id"`
	Name     string        `json:"name"`
	Products []ProductView `json:"products"`
}

type CartLine struct {
	ProductView
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

type CartView struct {
	Items    []CartLine `json:"items"`
	Count    int        `json:"count"`
	Subtotal float64    `json:"subtotal"`
	Service  float64    `json:"service_cost"`
	Total    float64    `json:"total_cost"`
	Missing  []int      `json:"missing,omitempty"`
}

// ScopeView is what a customer sees about the unit they scanned. Guest
// names and phones stay out of it.
type ScopeView struct {
	Kind        models.UnitKind   `json:"kind"`
	Number      string            `json:"number"`
	Status      models.UnitStatus `json:"status"`
	ReservedNow string            `json:"reserved_now,omitempty"`
}

func productView(p models.Product, locale string, inCart bool) ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name(locale),
		Description: p.Description(locale),
		Price:       p.Price,
		PriceLabel:  utils.FormatPrice(p.Price),
		Time:        p.Time,
		Category:    p.Category,
		IsVegan:     p.IsVegan,
		IsHalal:     p.IsHalal,
		Image:       p.Image,
		InCart:      inCart,
	}
}

func (cc *CustomerController) now() time.Time {
	return cc.Now().In(cc.Location)
}

func (cc *CustomerController) device(c *gin.Context) (string, bool) {
	id, ok := deviceFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoDevice)
	}
	return id, ok
}

func (cc *CustomerController) cartSet(c *gin.Context, deviceID string) (map[int]bool, bool) {
	items, err := cc.Cart.Items(c.Request.Context(), deviceID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return nil, false
	}
	set := make(map[int]bool, len(items))
	for _, id := range items {
		set[id] = true
	}
	return set, true
}

// Home lists categories with their products in the negotiated locale.
func (cc *CustomerController) Home(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	locale := localeFrom(c)

	categories, err := cc.API.Categories().List(ctx)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	products, err := cc.API.Products().List(ctx)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	inCart, ok := cc.cartSet(c, deviceID)
	if !ok {
		return
	}

	views := make([]CategoryView, 0, len(categories))
	byID := make(map[int]int, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = len(views)
		views = append(views, CategoryView{ID: cat.ID, Name: cat.Name(locale), Products: []ProductView{}})
	}
	for _, p := range products {
		if i, ok := byID[p.Category]; ok {
			views[i].Products = append(views[i].Products, productView(p, locale, inCart[p.ID]))
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Menu", gin.H{
		"locale":     locale,
		"categories": views,
		"cart_count": len(inCart),
	})
}

func (cc *CustomerController) CategoryProducts(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	locale := localeFrom(c)

	category, err := cc.API.Categories().Get(ctx, id)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	products, err := cc.API.Products().List(ctx)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	inCart, ok := cc.cartSet(c, deviceID)
	if !ok {
		return
	}

	view := CategoryView{ID: category.ID, Name: category.Name(locale), Products: []ProductView{}}
	for _, p := range filterByCategory(products, category.ID) {
		view.Products = append(view.Products, productView(p, locale, inCart[p.ID]))
	}
	utils.RespondJSON(c, http.StatusOK, "Category products", view)
}

func (cc *CustomerController) Product(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := cc.API.Products().Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	inCart, err := cc.Cart.Contains(c.Request.Context(), deviceID, product.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product detail", productView(product, localeFrom(c), inCart))
}

// Scan binds the device to the unit printed on the QR code.
func (cc *CustomerController) Scan(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	kind, err := models.ParseUnitKind(c.Param("kind"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	units, err := cc.API.Units(kind)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	unit, err := units.FindByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	if err := cc.Cart.SetScope(c.Request.Context(), deviceID, cart.Scope{Kind: kind, Number: unit.Number}); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("Device %s scoped to %s %s", deviceID, kind, unit.Number)
	utils.RespondJSON(c, http.StatusOK, "Welcome", cc.scopeView(unit))
}

func (cc *CustomerController) scopeView(unit models.SeatingUnit) ScopeView {
	v := ScopeView{Kind: unit.Kind, Number: unit.Number, Status: unit.Status}
	if r, ok := services.DisplayReservation(unit, cc.now()); ok {
		v.ReservedNow = r.Time
	}
	return v
}

// GetCart prices the cart at one of each product. Products that were
// deleted upstream are listed under missing.
func (cc *CustomerController) GetCart(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	view, err := cc.cartView(c, deviceID)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart", view)
}

func (cc *CustomerController) cartView(c *gin.Context, deviceID string) (CartView, error) {
	ctx := c.Request.Context()
	items, err := cc.Cart.Items(ctx, deviceID)
	if err != nil {
		return CartView{}, err
	}
	view := CartView{Items: []CartLine{}}
	if len(items) == 0 {
		return view, nil
	}
	catalog, err := loadCatalog(ctx, cc.API)
	if err != nil {
		return CartView{}, err
	}

	locale := localeFrom(c)
	basket := models.Basket{}
	for _, id := range items {
		p, ok := catalog[id]
		if !ok {
			view.Missing = append(view.Missing, id)
			continue
		}
		view.Items = append(view.Items, CartLine{ProductView: productView(p, locale, true), Quantity: 1, Total: p.Price})
		basket.Items = append(basket.Items, models.BasketItem{Product: id, Quantity: 1, Cost: p.Price})
	}
	basket.Price(cc.ServiceRate)
	view.Count = len(view.Items)
	view.Subtotal = basket.Subtotal()
	view.Service = basket.ServiceCost
	view.Total = basket.TotalCost
	return view, nil
}

// AddToCart is idempotent: a product already in the cart stays once.
func (cc *CustomerController) AddToCart(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	var body struct {
		ProductID int `json:"product_id" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := cc.API.Products().Get(c.Request.Context(), body.ProductID); err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	items, changed, err := cc.Cart.Add(c.Request.Context(), deviceID, body.ProductID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	message := "Added to cart"
	if !changed {
		message = "Already in cart"
	}
	utils.RespondJSON(c, http.StatusOK, message, gin.H{"items": items, "count": len(items)})
}

func (cc *CustomerController) RemoveFromCart(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	productID, err := strconv.Atoi(c.Param("product_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidID)
		return
	}
	items, _, err := cc.Cart.Remove(c.Request.Context(), deviceID, productID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Removed from cart", gin.H{"items": items, "count": len(items)})
}

func (cc *CustomerController) ClearCart(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	if err := cc.Cart.Clear(c.Request.Context(), deviceID); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart cleared", gin.H{"items": []int{}, "count": 0})
}

type placeOrderRequest struct {
	Items []services.OrderLine `json:"items"`
	Note  string               `json:"note" binding:"max=500"`
}

// PlaceOrder turns the cart into a basket for the scanned unit. Quantities
// may be sent per product; anything in the cart without one is ordered
// once. Units inside an open reservation window refuse new orders.
func (cc *CustomerController) PlaceOrder(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	var req placeOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}
	ctx := c.Request.Context()

	scope, ok, err := cc.Cart.Scope(ctx, deviceID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, ErrNoScope)
		return
	}
	items, err := cc.Cart.Items(ctx, deviceID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if len(items) == 0 {
		utils.RespondError(c, http.StatusBadRequest, ErrEmptyCart)
		return
	}

	units, err := cc.API.Units(scope.Kind)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	unit, err := units.FindByNumber(ctx, scope.Number)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	if len(services.ActiveReservations(unit, cc.now())) > 0 {
		utils.RespondError(c, http.StatusConflict, ErrUnitReserved)
		return
	}
	baskets, err := cc.API.Baskets(scope.Kind)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	catalog, err := loadCatalog(ctx, cc.API)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	basket, err := services.BuildBasket(unit, cartLines(items, req.Items), catalog, cc.ServiceRate, req.Note)
	if errors.Is(err, services.ErrUnknownProduct) {
		utils.RespondError(c, http.StatusConflict, err)
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	created, err := baskets.Create(ctx, basket)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	if err := cc.Cart.Clear(ctx, deviceID); err != nil {
		utils.ErrorLogger.Printf("clear cart after order %d: %v", created.ID, err)
	}
	if err := cc.Cart.SetLastOrder(ctx, deviceID, created.ID); err != nil {
		utils.ErrorLogger.Printf("remember order %d: %v", created.ID, err)
	}
	cc.Hub.BroadcastOrderCreated(scope.Kind, created)

	utils.InfoLogger.Printf("Order %d placed for %s %s (%s)", created.ID, scope.Kind, scope.Number, utils.FormatPrice(created.TotalCost))
	utils.RespondJSON(c, http.StatusCreated, "Order placed", created)
}

// cartLines orders every cart product once unless the request names a
// quantity for it. Requested products outside the cart are ignored.
func cartLines(items []int, requested []services.OrderLine) []services.OrderLine {
	qty := make(map[int]int, len(requested))
	for _, l := range requested {
		qty[l.Product] += l.Quantity
	}
	lines := make([]services.OrderLine, 0, len(items))
	for _, id := range items {
		lines = append(lines, services.OrderLine{Product: id, Quantity: qty[id]})
	}
	return lines
}

// CurrentOrder shows the scanned unit's status and its baskets, newest
// first.
func (cc *CustomerController) CurrentOrder(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	scope, ok, err := cc.Cart.Scope(ctx, deviceID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, ErrNoScope)
		return
	}
	units, err := cc.API.Units(scope.Kind)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	unit, err := units.FindByNumber(ctx, scope.Number)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}

	orders := []models.Basket{}
	if baskets, err := cc.API.Baskets(scope.Kind); err == nil {
		list, err := baskets.List(ctx)
		if err != nil {
			utils.RespondUpstreamError(c, err)
			return
		}
		orders = basketsForUnit(list, unit.ID)
	}

	lastOrder, _, err := cc.Cart.LastOrder(ctx, deviceID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current order", gin.H{
		"unit":       cc.scopeView(unit),
		"orders":     orders,
		"last_order": lastOrder,
	})
}

// OrderReceipt only serves baskets of the device's scanned unit.
func (cc *CustomerController) OrderReceipt(c *gin.Context) {
	deviceID, ok := cc.device(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	scope, ok, err := cc.Cart.Scope(ctx, deviceID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, ErrNoScope)
		return
	}
	baskets, err := cc.API.Baskets(scope.Kind)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	units, err := cc.API.Units(scope.Kind)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	unit, err := units.FindByNumber(ctx, scope.Number)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	basket, err := baskets.Get(ctx, id)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	if basket.UnitID() != unit.ID {
		utils.RespondError(c, http.StatusNotFound, apiclient.ErrNotFound)
		return
	}
	writeReceipt(c, cc.API, scope.Kind, basket, cc.Location)
}

func (cc *CustomerController) TimeWindows(c *gin.Context) {
	listAll(c, cc.API.TimeWindows(), "Working hours")
}
