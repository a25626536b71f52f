// Package orderhdl chứa HTTP handler cho board theo ngày: sync, đọc, toggle, stream và các view in ấn.
package orderhdl

import (
	"fmt"

	basehdl "order_board/internal/api/base/handler"
	orderdto "order_board/internal/api/order/dto"
	ordersvc "order_board/internal/api/order/service"
	"order_board/internal/logger"

	"github.com/gofiber/fiber/v3"
)

// OrderHandler xử lý API board theo ngày
type OrderHandler struct {
	OrderService *ordersvc.OrderService
	StreamHub    *ordersvc.StreamHub
}

// NewOrderHandler tạo handler từ các global đã khởi tạo
func NewOrderHandler() (*OrderHandler, error) {
	svc, err := ordersvc.NewOrderService()
	if err != nil {
		return nil, fmt.Errorf("create OrderService: %w", err)
	}
	return NewOrderHandlerWith(svc, ordersvc.SharedStreamHub(svc.Store())), nil
}

// NewOrderHandlerWith tạo handler với service và hub truyền vào
func NewOrderHandlerWith(svc *ordersvc.OrderService, hub *ordersvc.StreamHub) *OrderHandler {
	return &OrderHandler{OrderService: svc, StreamHub: hub}
}

// HandleSync xử lý POST /days/:day/sync
func (h *OrderHandler) HandleSync(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		day, err := basehdl.DayParam(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		res, err := h.OrderService.SyncDay(c.Context(), day)
		if err == nil {
			logger.LogAction("day_sync", c, map[string]interface{}{
				"day":    day,
				"orders": res.Orders,
				"groups": res.Groups,
			})
		}
		return basehdl.HandleResponse(c, res, err)
	})
}

// HandleGroups xử lý GET /days/:day/groups
func (h *OrderHandler) HandleGroups(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		day, err := basehdl.DayParam(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		groups, err := h.OrderService.Groups(c.Context(), day)
		return basehdl.HandleResponse(c, groups, err)
	})
}

// HandleOrders xử lý GET /days/:day/orders
func (h *OrderHandler) HandleOrders(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		day, err := basehdl.DayParam(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		orders, err := h.OrderService.Orders(c.Context(), day)
		return basehdl.HandleResponse(c, orders, err)
	})
}

// HandleBoard xử lý GET /days/:day/board
func (h *OrderHandler) HandleBoard(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		day, err := basehdl.DayParam(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		board, err := h.OrderService.Board(c.Context(), day)
		return basehdl.HandleResponse(c, board, err)
	})
}

// HandleToggle xử lý POST /toggleGroupUnit
func (h *OrderHandler) HandleToggle(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var input orderdto.ToggleUnitInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		res, err := h.OrderService.Toggle(c.Context(), input)
		if err == nil && !res.Duplicate {
			logger.LogAction("unit_toggle", c, map[string]interface{}{
				"day":         res.Day,
				"resource_id": res.GroupKey,
				"order_id":    res.OrderID,
				"line_item":   res.LineItemID,
				"unit_index":  res.UnitIndex,
				"completed":   res.Completed,
				"toggle_id":   res.RequestID,
			})
		}
		return basehdl.HandleResponse(c, res, err)
	})
}

// HandlePickups xử lý GET /days/:day/pickups
func (h *OrderHandler) HandlePickups(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		day, err := basehdl.DayParam(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		summary, err := h.OrderService.Pickups(c.Context(), day)
		return basehdl.HandleResponse(c, summary, err)
	})
}

// HandleMessages xử lý GET /days/:day/messages
func (h *OrderHandler) HandleMessages(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		day, err := basehdl.DayParam(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		tickets, err := h.OrderService.MessageTickets(c.Context(), day)
		return basehdl.HandleResponse(c, tickets, err)
	})
}
