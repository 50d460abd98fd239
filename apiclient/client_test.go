package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-pos/models"
)

func TestUnitsListStampsKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rooms/", r.URL.Path)
		w.Write([]byte(`[{"id":1,"number":"R1","chairs":6,"status":"empty","reservations":[{"id":9,"room":1,"date":"2026-10-15","time":"13:00-14:00","name":"Aziz","phone":"+998"}],"created_at":"2026-10-01T09:00:00.123456"}]`))
	}))
	defer server.Close()

	client := New(server.URL, server.Client())
	rooms, err := client.Units(models.KindRoom)
	require.NoError(t, err)

	units, err := rooms.List(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, models.KindRoom, units[0].Kind)
	assert.Equal(t, "R1", units[0].Number)
	assert.Equal(t, 1, units[0].Reservations[0].UnitID())
	assert.Equal(t, 2026, units[0].CreatedAt.Year())
}

func TestListAcceptsPaginatedEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count":2,"next":null,"results":[{"id":1,"name_uz":"Ichimliklar"},{"id":2,"name_uz":"Salatlar"}]}`))
	}))
	defer server.Close()

	categories, err := New(server.URL, server.Client()).Categories().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 2)
	assert.Equal(t, "Salatlar", categories[1].Name("uz"))
}

func TestErrorsCarryResponseBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"detail":"Not found."}`, target: ErrNotFound},
		{name: "validation", status: http.StatusBadRequest, body: `{"time":["invalid"]}`, target: ErrValidation},
		{name: "precondition", status: http.StatusPreconditionFailed, body: ``, target: ErrPreconditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL, server.Client()).Products().Get(context.Background(), 7)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.body, apiErr.Body)
			assert.Contains(t, apiErr.URL, "/products/7/")
		})
	}
}

func TestLongErrorBodyCutOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", 511) + strings.Repeat("ж", 10)
	err := &APIError{Method: http.MethodGet, URL: "/products/1/", StatusCode: http.StatusBadRequest, Body: body}

	msg := err.Error()
	assert.True(t, utf8.ValidString(msg))
	assert.True(t, strings.HasSuffix(msg, strings.Repeat("a", 511)+"..."))
}

func TestMalformedJSONIsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "not-a-number"`))
	}))
	defer server.Close()

	_, err := New(server.URL, server.Client()).Categories().Get(context.Background(), 1)
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url, nil).TimeWindows().List(context.Background())
	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestSetStatusSendsPatch(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.Write([]byte(`{"id":5,"number":"5","status":"reserved"}`))
	}))
	defer server.Close()

	tables, err := New(server.URL, server.Client()).Units(models.KindTable)
	require.NoError(t, err)
	require.NoError(t, tables.SetStatus(context.Background(), 5, models.StatusReserved))

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/tables/5/", gotPath)
	assert.Equal(t, "reserved", gotBody["status"])
}

func TestPatchIfMatchForwardsETag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("ETag", `"v2"`)
			w.Write([]byte(`{"id":3,"number":"3","status":"empty"}`))
			return
		}
		if r.Header.Get("If-Match") != `"v2"` {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		w.Write([]byte(`{"id":3,"number":"3","status":"ordered"}`))
	}))
	defer server.Close()

	tables, err := New(server.URL, server.Client()).Units(models.KindTable)
	require.NoError(t, err)

	_, etag, err := tables.GetVersioned(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, `"v2"`, etag)

	updated, err := tables.PatchIfMatch(context.Background(), 3, map[string]string{"status": "ordered"}, etag)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOrdered, updated.Status)

	_, err = tables.PatchIfMatch(context.Background(), 3, map[string]string{"status": "ordered"}, `"v1"`)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestUnsupportedKinds(t *testing.T) {
	client := New("http://example.invalid", nil)

	_, err := client.Reservations(models.KindHotelRoom)
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	_, err = client.Baskets(models.KindHotelRoom)
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	hotel, err := client.Units(models.KindHotelRoom)
	require.NoError(t, err)
	assert.Equal(t, PathHotelRooms, hotel.Path())
}

func TestFindByNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"number":"1","status":"empty"},{"id":2,"number":"12","status":"ordered"}]`))
	}))
	defer server.Close()

	tables, err := New(server.URL, server.Client()).Units(models.KindTable)
	require.NoError(t, err)

	unit, err := tables.FindByNumber(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, 2, unit.ID)

	_, err = tables.FindByNumber(context.Background(), "99")
	assert.ErrorIs(t, err, ErrNotFound)
}
