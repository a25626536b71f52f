// Package docstore lưu đơn hàng và batch theo ngày, cung cấp snapshot trực tiếp và toggle idempotent.
// Có ba driver: MongoDB (change stream), Firestore (days/{date}/groups|orders) và memory.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/common"
	"order_board/internal/production"
)

// maxConflictRetries số lần thử lại khi ghi bị xung đột version
const maxConflictRetries = 5

// RebuildFunc nhận dữ liệu đang lưu của ngày và trả về bộ dữ liệu mới thay thế toàn bộ
type RebuildFunc func(priorOrders []ordermodels.Order, priorGroups []ordermodels.GroupUnit) ([]ordermodels.Order, []ordermodels.GroupUnit, error)

// GroupsFunc nhận toàn bộ batch của ngày mỗi khi có thay đổi
type GroupsFunc func(groups []ordermodels.GroupUnit)

// OrdersFunc nhận toàn bộ đơn của ngày mỗi khi có thay đổi
type OrdersFunc func(orders []ordermodels.Order)

// Store là document store theo ngày
type Store interface {
	// Groups trả về batch của ngày, sắp xếp theo productTitle
	Groups(ctx context.Context, day string) ([]ordermodels.GroupUnit, error)
	// Orders trả về đơn của ngày, sắp xếp theo ref_number
	Orders(ctx context.Context, day string) ([]ordermodels.Order, error)
	// ReplaceDay đọc dữ liệu hiện có, gọi rebuild và ghi đè nguyên tử toàn bộ ngày
	ReplaceDay(ctx context.Context, day string, rebuild RebuildFunc) error
	// ToggleUnit đảo trạng thái một unit. Cùng RequestID chỉ áp dụng một lần.
	ToggleUnit(ctx context.Context, cmd ordermodels.ToggleCommand) (*ordermodels.ToggleResult, error)
	// WatchGroups gửi snapshot đầu tiên rồi mỗi lần batch của ngày đổi; chặn tới khi ctx kết thúc
	WatchGroups(ctx context.Context, day string, fn GroupsFunc) error
	// WatchOrders tương tự WatchGroups cho đơn hàng
	WatchOrders(ctx context.Context, day string, fn OrdersFunc) error
	Close(ctx context.Context) error
}

// SortGroups sắp xếp batch theo productTitle, trùng thì theo key
func SortGroups(groups []ordermodels.GroupUnit) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].ProductTitle != groups[j].ProductTitle {
			return groups[i].ProductTitle < groups[j].ProductTitle
		}
		return groups[i].Key < groups[j].Key
	})
}

// SortOrders sắp xếp đơn theo ref_number, trùng thì theo id
func SortOrders(orders []ordermodels.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].RefNumber != orders[j].RefNumber {
			return orders[i].RefNumber < orders[j].RefNumber
		}
		return orders[i].ID < orders[j].ID
	})
}

func docID(day, id string) string {
	return day + "/" + id
}

// applyToggle đảo unit trong một batch đã đọc từ store; batch gốc không bị sửa
func applyToggle(g ordermodels.GroupUnit, cmd ordermodels.ToggleCommand) (ordermodels.GroupUnit, ordermodels.ToggleResult, error) {
	ref := production.UnitRef{OrderID: cmd.OrderID, LineItemID: cmd.LineItemID, UnitIndex: cmd.UnitIndex}
	_, pos, err := production.FindUnit([]ordermodels.GroupUnit{g}, cmd.GroupKey, ref)
	if err != nil {
		return g, ordermodels.ToggleResult{}, toggleError(err, cmd)
	}
	if g.ProgressItems[pos].IsVoided {
		return g, ordermodels.ToggleResult{}, toggleError(production.ErrUnitVoided, cmd)
	}

	updated := production.FlipUnitAt(g, pos)
	updated.Version = g.Version + 1
	return updated, ordermodels.ToggleResult{
		RequestID:  cmd.RequestID,
		Day:        cmd.Day,
		GroupKey:   cmd.GroupKey,
		OrderID:    cmd.OrderID,
		LineItemID: cmd.LineItemID,
		UnitIndex:  cmd.UnitIndex,
		Completed:  updated.ProgressItems[pos].Completed,
		Need:       updated.Need,
		Done:       updated.Done,
	}, nil
}

// toggleError chuyển lỗi của production sang common.Error kèm định danh unit
func toggleError(err error, cmd ordermodels.ToggleCommand) error {
	details := map[string]interface{}{
		"day":        cmd.Day,
		"groupKey":   cmd.GroupKey,
		"orderId":    cmd.OrderID,
		"lineItemId": cmd.LineItemID,
		"unitIndex":  cmd.UnitIndex,
	}
	switch {
	case errors.Is(err, production.ErrUnitVoided):
		return common.WrapDetails(common.ErrUnitVoided, details)
	case errors.Is(err, production.ErrBatchNotFound), errors.Is(err, production.ErrUnitNotFound):
		details["reason"] = err.Error()
		return common.WrapDetails(common.ErrNotFound, details)
	}
	return fmt.Errorf("toggle unit: %w", err)
}

// isFresh true khi requestId đã xử lý còn trong thời hạn chống lặp
func isFresh(rec ordermodels.ToggleRequestRecord, now time.Time, ttl time.Duration) bool {
	return ttl <= 0 || now.Sub(rec.CreatedAt) < ttl
}

// prepareDay gắn day/DocID cho dữ liệu mới và tăng version của batch theo bản trước
func prepareDay(day string, orders []ordermodels.Order, groups []ordermodels.GroupUnit, prior []ordermodels.GroupUnit) {
	versions := make(map[string]int64, len(prior))
	for _, g := range prior {
		versions[g.Key] = g.Version
	}
	for i := range orders {
		orders[i].Day = day
		orders[i].DocID = docID(day, orders[i].ID)
	}
	for i := range groups {
		groups[i].Day = day
		groups[i].DocID = docID(day, groups[i].Key)
		groups[i].Version = versions[groups[i].Key] + 1
	}
}
