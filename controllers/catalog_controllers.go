package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// CatalogController serves the admin screens for categories, products
// and the restaurant's time windows.
type CatalogController struct {
	API *apiclient.Client
}

func NewCatalogController(api *apiclient.Client) *CatalogController {
	return &CatalogController{API: api}
}

type categoryRequest struct {
	NameUz string `json:"name_uz" binding:"required"`
	NameRu string `json:"name_ru"`
	NameEn string `json:"name_en"`
}

type productRequest struct {
	NameUz        string  `json:"name_uz" binding:"required"`
	NameRu        string  `json:"name_ru"`
	NameEn        string  `json:"name_en"`
	DescriptionUz string  `json:"description_uz"`
	DescriptionRu string  `json:"description_ru"`
	DescriptionEn string  `json:"description_en"`
	Price         float64 `json:"price" binding:"gte=0"`
	Time          int     `json:"time" binding:"gte=0"`
	Category      int     `json:"category" binding:"required,gt=0"`
	IsVegan       bool    `json:"is_vegan"`
	IsHalal       bool    `json:"is_halal"`
	Image         string  `json:"image"`
}

// Partial updates only carry the fields that were sent.
type productPatch struct {
	NameUz        *string  `json:"name_uz,omitempty"`
	NameRu        *string  `json:"name_ru,omitempty"`
	NameEn        *string  `json:"name_en,omitempty"`
	DescriptionUz *string  `json:"description_uz,omitempty"`
	DescriptionRu *string  `json:"description_ru,omitempty"`
	DescriptionEn *string  `json:"description_en,omitempty"`
	Price         *float64 `json:"price,omitempty" binding:"omitempty,gte=0"`
	Time          *int     `json:"time,omitempty" binding:"omitempty,gte=0"`
	Category      *int     `json:"category,omitempty" binding:"omitempty,gt=0"`
	IsVegan       *bool    `json:"is_vegan,omitempty"`
	IsHalal       *bool    `json:"is_halal,omitempty"`
	Image         *string  `json:"image,omitempty"`
}

type categoryPatch struct {
	NameUz *string `json:"name_uz,omitempty"`
	NameRu *string `json:"name_ru,omitempty"`
	NameEn *string `json:"name_en,omitempty"`
}

type timeWindowRequest struct {
	Time string `json:"time" binding:"required"`
}

// GetAllCategories
func (cc *CatalogController) GetAllCategories(c *gin.Context) {
	listAll(c, cc.API.Categories(), "All categories")
}

func (cc *CatalogController) GetCategoryByID(c *gin.Context) {
	getOne(c, cc.API.Categories(), "Category detail")
}

// CreateCategory
func (cc *CatalogController) CreateCategory(c *gin.Context) {
	var body categoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	category := models.Category{NameUz: body.NameUz, NameRu: body.NameRu, NameEn: body.NameEn}
	if created, ok := createOne(c, cc.API.Categories(), category, "Category created"); ok {
		utils.InfoLogger.Printf("Category created: %d (%s)", created.ID, created.NameUz)
	}
}

func (cc *CatalogController) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body categoryPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	patchOne(c, cc.API.Categories(), id, body, "Category updated")
}

func (cc *CatalogController) DeleteCategory(c *gin.Context) {
	if id, ok := deleteOne(c, cc.API.Categories(), "Category deleted"); ok {
		utils.InfoLogger.Printf("Category %d deleted", id)
	}
}

// GetAllProducts supports ?category= to narrow the list.
func (cc *CatalogController) GetAllProducts(c *gin.Context) {
	products, err := cc.API.Products().List(c.Request.Context())
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	if category := queryInt(c, "category"); category > 0 {
		products = filterByCategory(products, category)
	}
	utils.RespondJSON(c, http.StatusOK, "All products", products)
}

func (cc *CatalogController) GetProductByID(c *gin.Context) {
	getOne(c, cc.API.Products(), "Product detail")
}

func (cc *CatalogController) CreateProduct(c *gin.Context) {
	var body productRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	product := models.Product{
		NameUz:        body.NameUz,
		NameRu:        body.NameRu,
		NameEn:        body.NameEn,
		DescriptionUz: body.DescriptionUz,
		DescriptionRu: body.DescriptionRu,
		DescriptionEn: body.DescriptionEn,
		Price:         body.Price,
		Time:          body.Time,
		Category:      body.Category,
		IsVegan:       body.IsVegan,
		IsHalal:       body.IsHalal,
		Image:         body.Image,
	}
	if created, ok := createOne(c, cc.API.Products(), product, "Product created"); ok {
		utils.InfoLogger.Printf("Product created: %d (%s, %s)", created.ID, created.NameUz, utils.FormatPrice(created.Price))
	}
}

func (cc *CatalogController) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body productPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	patchOne(c, cc.API.Products(), id, body, "Product updated")
}

func (cc *CatalogController) DeleteProduct(c *gin.Context) {
	if id, ok := deleteOne(c, cc.API.Products(), "Product deleted"); ok {
		utils.InfoLogger.Printf("Product %d deleted", id)
	}
}

func (cc *CatalogController) GetAllTimeWindows(c *gin.Context) {
	listAll(c, cc.API.TimeWindows(), "Working hours")
}

func (cc *CatalogController) GetTimeWindowByID(c *gin.Context) {
	getOne(c, cc.API.TimeWindows(), "Working hours entry")
}

// CreateTimeWindow accepts the same "HH:MM-HH:MM" form as reservations.
func (cc *CatalogController) CreateTimeWindow(c *gin.Context) {
	var body timeWindowRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := services.ParseTimeRange(body.Time); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	createOne(c, cc.API.TimeWindows(), models.TimeWindow{Time: body.Time}, "Working hours created")
}

func (cc *CatalogController) UpdateTimeWindow(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body timeWindowRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := services.ParseTimeRange(body.Time); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	patchOne(c, cc.API.TimeWindows(), id, body, "Working hours updated")
}

func (cc *CatalogController) DeleteTimeWindow(c *gin.Context) {
	deleteOne(c, cc.API.TimeWindows(), "Working hours deleted")
}

func filterByCategory(products []models.Product, category int) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
