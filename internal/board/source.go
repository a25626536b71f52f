// Package board là phía client của board sản xuất: giữ batch/đơn của một ngày,
// quản lý vòng đời subscription snapshot và thực hiện toggle unit theo giao thức
// "gọi server trước, thành công mới cập nhật local".
package board

import (
	"context"

	ordermodels "order_board/internal/api/order/models"
)

// Tên collection được subscribe
const (
	CollectionGroups = "groups"
	CollectionOrders = "orders"
)

// Unsubscribe huỷ một subscription. Gọi nhiều lần không lỗi.
type Unsubscribe func()

// SnapshotSource cung cấp luồng snapshot của days/{day}/groups và days/{day}/orders.
// Mỗi snapshot là toàn bộ collection. onError được gọi tối đa một lần khi luồng chết.
type SnapshotSource interface {
	SubscribeGroups(day string, onSnapshot func([]ordermodels.GroupUnit), onError func(error)) (Unsubscribe, error)
	SubscribeOrders(day string, onSnapshot func([]ordermodels.Order), onError func(error)) (Unsubscribe, error)
}

// Mutator gửi lệnh toggle tới document store. Server chịu trách nhiệm dedupe theo RequestID.
type Mutator interface {
	ToggleUnit(ctx context.Context, cmd ordermodels.ToggleCommand) (*ordermodels.ToggleResult, error)
}
