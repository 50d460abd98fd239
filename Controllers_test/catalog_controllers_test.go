package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-pos/controllers"
	"github.com/yeremiapane/restaurant-pos/models"
)

func setupCatalogRouter(e *testEnv) *gin.Engine {
	router := gin.New()
	ctrl := controllers.NewCatalogController(e.client)

	router.GET("/admin/categories", ctrl.GetAllCategories)
	router.POST("/admin/categories", ctrl.CreateCategory)
	router.GET("/admin/categories/:id", ctrl.GetCategoryByID)
	router.PATCH("/admin/categories/:id", ctrl.UpdateCategory)
	router.DELETE("/admin/categories/:id", ctrl.DeleteCategory)

	router.GET("/admin/products", ctrl.GetAllProducts)
	router.POST("/admin/products", ctrl.CreateProduct)
	router.GET("/admin/products/:id", ctrl.GetProductByID)
	router.PATCH("/admin/products/:id", ctrl.UpdateProduct)
	router.DELETE("/admin/products/:id", ctrl.DeleteProduct)

	router.GET("/admin/time-windows", ctrl.GetAllTimeWindows)
	router.POST("/admin/time-windows", ctrl.CreateTimeWindow)
	router.PATCH("/admin/time-windows/:id", ctrl.UpdateTimeWindow)
	router.DELETE("/admin/time-windows/:id", ctrl.DeleteTimeWindow)
	return router
}

func TestCategoryCRUD(t *testing.T) {
	e := newTestEnv(t)
	router := setupCatalogRouter(e)

	res := performRequest(t, router, http.MethodPost, "/admin/categories",
		map[string]string{"name_uz": "Shirinliklar", "name_ru": "Десерты", "name_en": "Desserts"}, nil)
	assert.Equal(t, http.StatusCreated, res.Code)
	id := int(dataMap(t, res)["id"].(float64))

	res = performRequest(t, router, http.MethodPatch, "/admin/categories/"+itoa(id), map[string]string{"name_en": "Sweets"}, nil)
	assert.Equal(t, http.StatusOK, res.Code)

	var stored models.Category
	require.True(t, e.api.Get("/categories/", id, &stored))
	assert.Equal(t, "Sweets", stored.NameEn)
	assert.Equal(t, "Shirinliklar", stored.NameUz)

	res = performRequest(t, router, http.MethodGet, "/admin/categories", nil, nil)
	assert.Len(t, dataList(t, res), 1)

	res = performRequest(t, router, http.MethodDelete, "/admin/categories/"+itoa(id), nil, nil)
	assert.Equal(t, http.StatusOK, res.Code)

	res = performRequest(t, router, http.MethodGet, "/admin/categories/"+itoa(id), nil, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = performRequest(t, router, http.MethodPost, "/admin/categories", map[string]string{"name_en": "No uzbek"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestProductCRUD(t *testing.T) {
	e := newTestEnv(t)
	e.seedMenu()
	router := setupCatalogRouter(e)

	res := performRequest(t, router, http.MethodPost, "/admin/products", map[string]interface{}{
		"name_uz":  "Somsa",
		"name_en":  "Samsa",
		"price":    8000,
		"time":     15,
		"category": 2,
		"is_halal": true,
	}, nil)
	assert.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, "Product created", res.Message)

	res = performRequest(t, router, http.MethodGet, "/admin/products?category=2", nil, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, dataList(t, res), 2)

	res = performRequest(t, router, http.MethodPatch, "/admin/products/10", map[string]interface{}{"price": 6000}, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.EqualValues(t, 6000, dataMap(t, res)["price"])

	res = performRequest(t, router, http.MethodPatch, "/admin/products/10", map[string]interface{}{"price": -1}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = performRequest(t, router, http.MethodPost, "/admin/products", map[string]interface{}{"name_uz": "No category"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestProductUpstreamValidationPassedThrough(t *testing.T) {
	e := newTestEnv(t)
	e.api.Fail(http.MethodPost, "/products/", http.StatusBadRequest, `{"category":["Invalid pk \"99\" - object does not exist."]}`)
	router := setupCatalogRouter(e)

	res := performRequest(t, router, http.MethodPost, "/admin/products", map[string]interface{}{
		"name_uz":  "Somsa",
		"price":    8000,
		"category": 99,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, dataMap(t, res)["upstream"], "object does not exist")
}

func TestUpstreamOutageIsBadGateway(t *testing.T) {
	e := newTestEnv(t)
	e.api.Fail(http.MethodGet, "/categories/", http.StatusInternalServerError, "")
	router := setupCatalogRouter(e)

	res := performRequest(t, router, http.MethodGet, "/admin/categories", nil, nil)
	assert.Equal(t, http.StatusBadGateway, res.Code)
}

func TestTimeWindows(t *testing.T) {
	e := newTestEnv(t)
	router := setupCatalogRouter(e)

	res := performRequest(t, router, http.MethodPost, "/admin/time-windows", map[string]string{"time": "09:00-23:00"}, nil)
	assert.Equal(t, http.StatusCreated, res.Code)

	res = performRequest(t, router, http.MethodPost, "/admin/time-windows", map[string]string{"time": "nine to five"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = performRequest(t, router, http.MethodPatch, "/admin/time-windows/1", map[string]string{"time": "10:00-22:00"}, nil)
	assert.Equal(t, http.StatusOK, res.Code)

	res = performRequest(t, router, http.MethodGet, "/admin/time-windows", nil, nil)
	list := dataList(t, res)
	require.Len(t, list, 1)
	assert.Equal(t, "10:00-22:00", list[0].(map[string]interface{})["time"])
}
