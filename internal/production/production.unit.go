// Package production chứa mô hình Production Unit và engine gom batch.
// Mọi hàm ở đây là pure: không I/O, không sửa input.
package production

import (
	"strconv"

	ordermodels "order_board/internal/api/order/models"
)

// UnitRef định danh một production unit trong ngày
type UnitRef struct {
	OrderID    string
	LineItemID string
	UnitIndex  int
}

// RefOf trả về UnitRef của một unit
func RefOf(u ordermodels.GroupProgressItem) UnitRef {
	return UnitRef{OrderID: u.OrderID, LineItemID: u.LineItemID, UnitIndex: u.UnitIndex}
}

// Explode tách line item thành quantity unit độc lập, unitIndex 0..quantity-1, completed = 0.
// Unit bị void nếu line item hoặc đơn bị void. Quantity <= 0 trả về slice rỗng.
func Explode(order ordermodels.Order, item ordermodels.OrderItem) []ordermodels.GroupProgressItem {
	if item.Quantity <= 0 {
		return nil
	}

	voided := item.IsVoided || order.IsVoided()
	orderNumber := ""
	if order.Number > 0 {
		orderNumber = strconv.Itoa(order.Number)
	}
	pickupAt := item.PickupAt
	if pickupAt == "" {
		pickupAt = order.PickupAt
	}

	units := make([]ordermodels.GroupProgressItem, 0, item.Quantity)
	for i := 0; i < item.Quantity; i++ {
		units = append(units, ordermodels.GroupProgressItem{
			OrderID:      order.ID,
			LineItemID:   item.ID,
			OrderNumber:  orderNumber,
			CustomerName: order.Customer.Name,
			Quantity:     1,
			Completed:    ordermodels.UnitPending,
			IsVoided:     voided,
			PickupAt:     pickupAt,
			UnitIndex:    i,
		})
	}
	return units
}

// Rollup đếm need (unit không void) và done (unit không void đã hoàn thành)
func Rollup(units []ordermodels.GroupProgressItem) (need, done int) {
	for _, u := range units {
		if u.IsVoided {
			continue
		}
		need++
		if u.IsDone() {
			done++
		}
	}
	return need, done
}

// ProgressFlags là mảng progress kiểu cũ: một phần tử cho mỗi unit không void, theo thứ tự unit
func ProgressFlags(units []ordermodels.GroupProgressItem) []bool {
	flags := make([]bool, 0, len(units))
	for _, u := range units {
		if !u.IsVoided {
			flags = append(flags, u.IsDone())
		}
	}
	return flags
}

// Recompute tính lại need/done/progress của batch từ ProgressItems
func Recompute(g *ordermodels.GroupUnit) {
	g.Need, g.Done = Rollup(g.ProgressItems)
	g.Progress = ProgressFlags(g.ProgressItems)
}

// Completion lưu trạng thái completed của các unit đã biết, dùng khi build lại batch
type Completion map[UnitRef]int

// CompletionFromGroups thu thập trạng thái completed từ các batch hiện có
func CompletionFromGroups(groups []ordermodels.GroupUnit) Completion {
	c := make(Completion)
	for _, g := range groups {
		for _, u := range g.ProgressItems {
			if u.IsDone() {
				c[RefOf(u)] = u.Completed
			}
		}
	}
	return c
}
