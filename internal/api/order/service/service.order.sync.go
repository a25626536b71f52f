package ordersvc

import (
	"context"

	"order_board/internal/api/events"
	orderdto "order_board/internal/api/order/dto"
	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/commerce"
	"order_board/internal/common"
	"order_board/internal/logger"
	"order_board/internal/production"
	"order_board/internal/utility"
)

// SyncDay tải đơn của ngày từ commerce backend, gom batch (giữ tiến độ cũ) và ghi đè dữ liệu ngày.
// Lỗi fetch trả về ErrCommerceUnavailable và không đụng tới dữ liệu đang lưu.
func (s *OrderService) SyncDay(ctx context.Context, day string) (*orderdto.SyncResult, error) {
	from, to, err := utility.OrderWindow(day, s.loc, s.lookbackDays)
	if err != nil {
		return nil, common.WrapDetails(common.ErrInvalidFormat, err.Error())
	}
	dueDate, err := utility.FormatDueDate(day)
	if err != nil {
		return nil, common.WrapDetails(common.ErrInvalidFormat, err.Error())
	}

	log := logger.WithContext(ctx).WithField("day", day)
	raw, err := s.fetcher.FetchOrders(ctx, commerce.OrdersQuery{
		From:       from,
		To:         to,
		ExcludeTag: s.printedPrefix + day,
		DueDate:    dueDate,
	})
	if err != nil {
		log.WithError(err).Error("🔄 [SYNC] Cannot fetch orders")
		return nil, err
	}
	fetched := commerce.NormalizeOrders(raw)
	syncedAt := s.now().UnixMilli()

	result := &orderdto.SyncResult{Day: day, SyncedAt: syncedAt}
	err = s.store.ReplaceDay(ctx, day, func(priorOrders []ordermodels.Order, priorGroups []ordermodels.GroupUnit) ([]ordermodels.Order, []ordermodels.GroupUnit, error) {
		// rebuild có thể chạy lại khi xung đột: luôn làm việc trên bản sao
		orders := make([]ordermodels.Order, len(fetched))
		copy(orders, fetched)
		AssignRefNumbers(orders, priorOrders)
		for i := range orders {
			orders[i].SyncedAt = syncedAt
		}
		groups := production.BuildBatches(day, orders, production.CompletionFromGroups(priorGroups))

		result.Orders = len(orders)
		result.Groups = len(groups)
		result.Units = 0
		for _, g := range groups {
			result.Units += g.Need
		}
		return orders, groups, nil
	})
	if err != nil {
		log.WithError(err).Error("🔄 [SYNC] Cannot write day")
		return nil, err
	}

	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: events.CollectionDayOrders,
		Operation:      events.OpSync,
		Day:            day,
		Document:       result,
	})
	log.WithFields(map[string]interface{}{
		"orders": result.Orders,
		"groups": result.Groups,
		"units":  result.Units,
	}).Info("🔄 [SYNC] Day synchronized")
	return result, nil
}

// AssignRefNumbers gán số thứ tự ổn định cho đơn:
// giá trị backend cung cấp, nếu không thì số đã gán ở lần sync trước, nếu không thì tiếp nối số lớn nhất.
// Lần sync đầu tiên của ngày (không có prior) cho kết quả 1..n theo thứ tự backend trả về.
func AssignRefNumbers(orders []ordermodels.Order, prior []ordermodels.Order) {
	priorRefs := make(map[string]int, len(prior))
	maxRef := 0
	for _, o := range prior {
		if o.RefNumber > 0 {
			priorRefs[o.ID] = o.RefNumber
		}
		if o.RefNumber > maxRef {
			maxRef = o.RefNumber
		}
	}

	for i := range orders {
		if orders[i].RefNumber > 0 {
			continue
		}
		if ref, ok := priorRefs[orders[i].ID]; ok {
			orders[i].RefNumber = ref
		}
	}
	for _, o := range orders {
		if o.RefNumber > maxRef {
			maxRef = o.RefNumber
		}
	}
	for i := range orders {
		if orders[i].RefNumber == 0 {
			maxRef++
			orders[i].RefNumber = maxRef
		}
	}
}
