package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"order_board/config"
	orderhdl "order_board/internal/api/order/handler"
	ordermodels "order_board/internal/api/order/models"
	ordersvc "order_board/internal/api/order/service"
	"order_board/internal/commerce"
	"order_board/internal/docstore"
	"order_board/internal/global"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2025-08-18"

type stubFetcher struct {
	orders []commerce.RawOrder
}

func (f *stubFetcher) FetchOrders(ctx context.Context, q commerce.OrdersQuery) ([]commerce.RawOrder, error) {
	return f.orders, nil
}

type envelope struct {
	Code    interface{}     `json:"code"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T) (*fiber.App, docstore.Store) {
	t.Helper()
	global.InitValidator()

	var o commerce.RawOrder
	o.ID = "A"
	o.Name = "#1001"
	o.Tags = []string{"Mon, 18 Aug 2025", "9:00 AM - 11:00 AM"}
	o.TotalPrice = "8"
	o.LineItems = []commerce.RawLineItem{{ID: "A-1", Name: "Croissant", Quantity: 2}}

	store := docstore.NewMemoryStore(time.Hour)
	svc, err := ordersvc.NewOrderServiceWith(store, &stubFetcher{orders: []commerce.RawOrder{o}}, &config.Configuration{
		BusinessTimezone:  "America/Vancouver",
		OrderLookbackDays: 30,
		PrintedTagPrefix:  "Printed-",
	})
	require.NoError(t, err)

	app := fiber.New()
	Routes(app.Group("/api/v1"), orderhdl.NewOrderHandlerWith(svc, ordersvc.NewStreamHub(store)))
	return app, store
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestSyncThenReadGroups(t *testing.T) {
	app, _ := newApp(t)

	status, env := do(t, app, http.MethodPost, "/api/v1/days/"+day+"/sync", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)

	status, env = do(t, app, http.MethodGet, "/api/v1/days/"+day+"/groups", "")
	require.Equal(t, http.StatusOK, status)
	var groups []ordermodels.GroupUnit
	require.NoError(t, json.Unmarshal(env.Data, &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "Croissant", groups[0].ProductTitle)
	assert.Equal(t, 2, groups[0].Need)
	assert.Equal(t, 0, groups[0].Done)
}

func TestInvalidDayIsRejected(t *testing.T) {
	app, _ := newApp(t)

	status, env := do(t, app, http.MethodGet, "/api/v1/days/18-08-2025/orders", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", env.Status)
}

func TestToggleGroupUnit(t *testing.T) {
	app, store := newApp(t)
	status, _ := do(t, app, http.MethodPost, "/api/v1/days/"+day+"/sync", "")
	require.Equal(t, http.StatusOK, status)

	groups, err := store.Groups(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	body := `{"day":"` + day + `","groupKey":"` + groups[0].Key + `","orderId":"A","lineItemId":"A-1","unitIndex":1,"requestId":"req-1"}`
	status, env := do(t, app, http.MethodPost, "/api/v1/toggleGroupUnit", body)
	require.Equal(t, http.StatusOK, status)

	var res ordermodels.ToggleResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, ordermodels.UnitDone, res.Completed)
	assert.Equal(t, 1, res.Done)
	assert.False(t, res.Duplicate)

	// retry cùng requestId không đảo lần hai
	status, env = do(t, app, http.MethodPost, "/api/v1/toggleGroupUnit", body)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Duplicate)
	assert.Equal(t, 1, res.Done)

	groups, err = store.Groups(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 1, groups[0].Done)
}

func TestToggleValidation(t *testing.T) {
	app, _ := newApp(t)

	cases := map[string]string{
		"missing unit index": `{"day":"` + day + `","groupKey":"k","orderId":"A","lineItemId":"A-1"}`,
		"negative index":     `{"day":"` + day + `","groupKey":"k","orderId":"A","lineItemId":"A-1","unitIndex":-1}`,
		"bad day":            `{"day":"yesterday","groupKey":"k","orderId":"A","lineItemId":"A-1","unitIndex":0}`,
		"slash in request":   `{"day":"` + day + `","groupKey":"k","orderId":"A","lineItemId":"A-1","unitIndex":0,"requestId":"a/b"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			status, env := do(t, app, http.MethodPost, "/api/v1/toggleGroupUnit", body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "error", env.Status)
		})
	}
}

func TestToggleUnknownBatch(t *testing.T) {
	app, _ := newApp(t)
	status, _ := do(t, app, http.MethodPost, "/api/v1/days/"+day+"/sync", "")
	require.Equal(t, http.StatusOK, status)

	body := `{"day":"` + day + `","groupKey":"Nope||","orderId":"A","lineItemId":"A-1","unitIndex":0}`
	status, env := do(t, app, http.MethodPost, "/api/v1/toggleGroupUnit", body)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "error", env.Status)
}

func TestPickupsAndMessages(t *testing.T) {
	app, _ := newApp(t)
	status, _ := do(t, app, http.MethodPost, "/api/v1/days/"+day+"/sync", "")
	require.Equal(t, http.StatusOK, status)

	status, env := do(t, app, http.MethodGet, "/api/v1/days/"+day+"/pickups", "")
	require.Equal(t, http.StatusOK, status)
	var summary struct {
		Day   string        `json:"day"`
		Rows  []interface{} `json:"rows"`
		Total string        `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, day, summary.Day)
	assert.Len(t, summary.Rows, 1)
	assert.Equal(t, "8.00", summary.Total)

	status, _ = do(t, app, http.MethodGet, "/api/v1/days/"+day+"/messages", "")
	assert.Equal(t, http.StatusOK, status)
}
