// Package router đăng ký route catalog sản phẩm.
package router

import (
	"fmt"

	producthdl "order_board/internal/api/product/handler"
	apirouter "order_board/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

// Register tạo handler từ global và đăng ký route lên v1
func Register(v1 fiber.Router, r *apirouter.Router) error {
	h, err := producthdl.NewProductHandler()
	if err != nil {
		return fmt.Errorf("create product handler: %w", err)
	}
	Routes(v1, h)
	return nil
}

// Routes đăng ký route với handler có sẵn
func Routes(v1 fiber.Router, h *producthdl.ProductHandler) {
	apirouter.RegisterRouteWithMiddleware(v1, "", "GET", "/products", nil, h.HandleCatalog)
}
