// Package producthdl chứa handler cho catalog sản phẩm.
package producthdl

import (
	"fmt"

	basehdl "order_board/internal/api/base/handler"
	productsvc "order_board/internal/api/product/service"

	"github.com/gofiber/fiber/v3"
)

// ProductHandler xử lý GET /products
type ProductHandler struct {
	ProductService *productsvc.ProductService
}

// NewProductHandler tạo handler từ global
func NewProductHandler() (*ProductHandler, error) {
	svc, err := productsvc.NewProductService()
	if err != nil {
		return nil, fmt.Errorf("create ProductService: %w", err)
	}
	return &ProductHandler{ProductService: svc}, nil
}

// HandleCatalog xử lý GET /products?refresh=true
func (h *ProductHandler) HandleCatalog(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		refresh := c.Query("refresh") == "true"
		catalog, err := h.ProductService.Catalog(c.Context(), refresh)
		return basehdl.HandleResponse(c, catalog, err)
	})
}
