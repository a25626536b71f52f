package production

import (
	"errors"

	ordermodels "order_board/internal/api/order/models"
)

var (
	// ErrBatchNotFound batch key không tồn tại trong ngày
	ErrBatchNotFound = errors.New("batch not found")
	// ErrUnitNotFound không có unit (orderId, lineItemId, unitIndex) trong batch
	ErrUnitNotFound = errors.New("production unit not found")
	// ErrUnitVoided unit thuộc đơn/line item đã void, không được toggle
	ErrUnitVoided = errors.New("production unit is voided")
)

// FindUnit tìm unit trong danh sách batch. Trả về vị trí batch và vị trí unit.
func FindUnit(groups []ordermodels.GroupUnit, groupKey string, ref UnitRef) (groupPos, unitPos int, err error) {
	groupPos = -1
	for i := range groups {
		if groups[i].Key == groupKey {
			groupPos = i
			break
		}
	}
	if groupPos < 0 {
		return -1, -1, ErrBatchNotFound
	}
	for j, u := range groups[groupPos].ProgressItems {
		if RefOf(u) == ref {
			return groupPos, j, nil
		}
	}
	return groupPos, -1, ErrUnitNotFound
}

// ToggleUnit đảo trạng thái completed của một unit theo kiểu copy-on-write:
// trả về slice batch MỚI, chỉ batch đích được copy và tính lại; input không bị sửa.
// Unit void hoặc không tồn tại: trả về input nguyên vẹn kèm lỗi.
func ToggleUnit(groups []ordermodels.GroupUnit, groupKey string, ref UnitRef) ([]ordermodels.GroupUnit, ordermodels.GroupUnit, error) {
	gi, ui, err := FindUnit(groups, groupKey, ref)
	if err != nil {
		return groups, ordermodels.GroupUnit{}, err
	}
	if groups[gi].ProgressItems[ui].IsVoided {
		return groups, groups[gi], ErrUnitVoided
	}

	updated := FlipUnitAt(groups[gi], ui)

	next := make([]ordermodels.GroupUnit, len(groups))
	copy(next, groups)
	next[gi] = updated
	return next, updated, nil
}

// FlipUnitAt trả về bản sao của batch với unit ở vị trí unitPos bị đảo trạng thái
func FlipUnitAt(g ordermodels.GroupUnit, unitPos int) ordermodels.GroupUnit {
	items := make([]ordermodels.GroupProgressItem, len(g.ProgressItems))
	copy(items, g.ProgressItems)
	if items[unitPos].IsDone() {
		items[unitPos].Completed = ordermodels.UnitPending
	} else {
		items[unitPos].Completed = ordermodels.UnitDone
	}

	g.ProgressItems = items
	Recompute(&g)
	return g
}
