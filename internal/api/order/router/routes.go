// Package router đăng ký các route thuộc domain Order: sync ngày, đọc batch/đơn, toggle unit, stream và view.
package router

import (
	"fmt"

	orderhdl "order_board/internal/api/order/handler"
	apirouter "order_board/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

// Register tạo handler từ global và đăng ký route lên v1
func Register(v1 fiber.Router, r *apirouter.Router) error {
	h, err := orderhdl.NewOrderHandler()
	if err != nil {
		return fmt.Errorf("create order handler: %w", err)
	}
	Routes(v1, h)
	return nil
}

// Routes đăng ký route với handler có sẵn
func Routes(v1 fiber.Router, h *orderhdl.OrderHandler) {
	apirouter.RegisterRouteWithMiddleware(v1, "", "POST", "/toggleGroupUnit", nil, h.HandleToggle)

	apirouter.RegisterRouteWithMiddleware(v1, "/days", "POST", "/:day/sync", nil, h.HandleSync)
	apirouter.RegisterRouteWithMiddleware(v1, "/days", "GET", "/:day/groups", nil, h.HandleGroups)
	apirouter.RegisterRouteWithMiddleware(v1, "/days", "GET", "/:day/orders", nil, h.HandleOrders)
	apirouter.RegisterRouteWithMiddleware(v1, "/days", "GET", "/:day/board", nil, h.HandleBoard)
	apirouter.RegisterRouteWithMiddleware(v1, "/days", "GET", "/:day/pickups", nil, h.HandlePickups)
	apirouter.RegisterRouteWithMiddleware(v1, "/days", "GET", "/:day/messages", nil, h.HandleMessages)
	apirouter.RegisterRouteWithMiddleware(v1, "/days", "GET", "/:day/stream", nil, h.HandleStream)
}
