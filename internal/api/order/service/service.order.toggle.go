package ordersvc

import (
	"context"

	"order_board/internal/api/events"
	orderdto "order_board/internal/api/order/dto"
	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/logger"

	"github.com/google/uuid"
)

// Toggle đảo trạng thái một production unit.
// Client nên gửi requestId; thiếu thì server tự sinh (khi đó retry không được chống lặp).
func (s *OrderService) Toggle(ctx context.Context, input orderdto.ToggleUnitInput) (*ordermodels.ToggleResult, error) {
	cmd := ordermodels.ToggleCommand{
		Day:        input.Day,
		GroupKey:   input.GroupKey,
		OrderID:    input.OrderID,
		LineItemID: input.LineItemID,
		RequestID:  input.RequestID,
	}
	if input.UnitIndex != nil {
		cmd.UnitIndex = *input.UnitIndex
	}
	if cmd.RequestID == "" {
		cmd.RequestID = uuid.NewString()
	}

	log := logger.WithContext(ctx).WithFields(map[string]interface{}{
		"day":        cmd.Day,
		"group_key":  cmd.GroupKey,
		"order_id":   cmd.OrderID,
		"line_item":  cmd.LineItemID,
		"unit_index": cmd.UnitIndex,
		"toggle_id":  cmd.RequestID,
	})

	res, err := s.store.ToggleUnit(ctx, cmd)
	if err != nil {
		log.WithError(err).Warn("Toggle rejected")
		return nil, err
	}
	if res.Duplicate {
		log.Info("Toggle replay, returning recorded result")
		return res, nil
	}

	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: events.CollectionDayGroups,
		Operation:      events.OpToggle,
		Day:            cmd.Day,
		Document:       res,
	})
	log.WithField("completed", res.Completed).Debug("Unit toggled")
	return res, nil
}
