package Controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/apiclient/apitest"
	"github.com/yeremiapane/restaurant-pos/cart"
	"github.com/yeremiapane/restaurant-pos/controllers"
	"github.com/yeremiapane/restaurant-pos/hub"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const (
	testToday     = "2026-10-15"
	testPublicURL = "https://pos.example"
	deviceHeader  = "X-Test-Device"
)

// testEnv wires controllers to an in-memory remote API. The clock is fixed
// at 13:30 Tashkent time on testToday.
type testEnv struct {
	api    *apitest.Server
	client *apiclient.Client
	store  *cart.Store
	hub    *hub.Hub
	db     *gorm.DB
	loc    *time.Location
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	loc, err := time.LoadLocation("Asia/Tashkent")
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.LocalValue{}, &models.StatusChange{}))

	api := apitest.New(t)
	return &testEnv{
		api:    api,
		client: apiclient.New(api.URL, api.Client()),
		store:  cart.NewStore(cart.NewGormKV(db)),
		hub:    hub.New(),
		db:     db,
		loc:    loc,
		now:    time.Date(2026, 10, 15, 13, 30, 0, 0, loc),
	}
}

func (e *testEnv) clock() time.Time {
	return e.now
}

// fakeDevice stands in for the cookie middleware: the device id comes from
// a request header.
func fakeDevice() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(deviceHeader); id != "" {
			c.Set(controllers.ContextDeviceID, id)
		}
		c.Next()
	}
}

func (e *testEnv) seedMenu() {
	e.api.Seed("/categories/",
		models.Category{ID: 1, NameUz: "Ichimliklar", NameRu: "Напитки", NameEn: "Drinks"},
		models.Category{ID: 2, NameUz: "Taomlar", NameRu: "Блюда", NameEn: "Meals"},
	)
	e.api.Seed("/products/",
		models.Product{ID: 10, NameUz: "Choy", NameRu: "Чай", NameEn: "Tea", Price: 5000, Category: 1},
		models.Product{ID: 11, NameUz: "Qahva", NameEn: "Coffee", Price: 12000, Category: 1},
		models.Product{ID: 20, NameUz: "Palov", NameRu: "Плов", NameEn: "Pilaf", Price: 45000, Time: 20, Category: 2, IsHalal: true},
	)
}

type response struct {
	Code    int
	Header  http.Header
	Body    []byte
	Message string
	Data    interface{}
}

func performRequest(t *testing.T, r http.Handler, method, path string, body interface{}, headers map[string]string) response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewBuffer(data)
		}
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	res := response{Code: w.Code, Header: w.Header(), Body: w.Body.Bytes()}
	var envelope map[string]interface{}
	if json.Unmarshal(res.Body, &envelope) == nil {
		res.Message, _ = envelope["message"].(string)
		res.Data = envelope["data"]
	}
	return res
}

func device(id string) map[string]string {
	return map[string]string{deviceHeader: id}
}

func dataMap(t *testing.T, res response) map[string]interface{} {
	t.Helper()
	m, ok := res.Data.(map[string]interface{})
	require.True(t, ok, "data is not an object: %s", res.Body)
	return m
}

func dataList(t *testing.T, res response) []interface{} {
	t.Helper()
	l, ok := res.Data.([]interface{})
	require.True(t, ok, "data is not a list: %s", res.Body)
	return l
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
