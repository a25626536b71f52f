package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	producthdl "order_board/internal/api/product/handler"
	productmodels "order_board/internal/api/product/models"
	productsvc "order_board/internal/api/product/service"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	err error
}

func (f *stubFetcher) FetchProducts(ctx context.Context) ([]productmodels.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []productmodels.Product{{ID: "1", Title: "Croissant", ProductType: "Viennoiserie"}}, nil
}

func newApp(f *stubFetcher) (*fiber.App, *productsvc.ProductService) {
	svc := productsvc.NewProductServiceWith(f, time.Hour)
	app := fiber.New()
	Routes(app.Group("/api/v1"), &producthdl.ProductHandler{ProductService: svc})
	return app, svc
}

func TestProductsRoute(t *testing.T) {
	app, svc := newApp(&stubFetcher{})
	defer svc.Close()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body struct {
		Data productmodels.Catalog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Data.Categories, 1)
	assert.Equal(t, "Viennoiserie", body.Data.Categories[0].Name)
	assert.False(t, body.Data.Stale)
}

func TestProductsRouteBadGateway(t *testing.T) {
	app, svc := newApp(&stubFetcher{err: errors.New("down")})
	defer svc.Close()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/products?refresh=true", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
