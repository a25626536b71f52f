package board

import (
	"context"
	"errors"
	"fmt"

	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/logger"
	"order_board/internal/production"

	"github.com/google/uuid"
)

var (
	// ErrUnitVoided unit bị void, toggle bị từ chối và không gọi server
	ErrUnitVoided = errors.New("board: unit is voided")
	// ErrNoDay chưa chọn ngày
	ErrNoDay = errors.New("board: no day selected")
)

// Board ghép Store, SubscriptionManager và Mutator thành một board client
type Board struct {
	store   *Store
	subs    *SubscriptionManager
	mutator Mutator
}

// New tạo board client
func New(source SnapshotSource, mutator Mutator) *Board {
	store := NewStore()
	return &Board{
		store:   store,
		subs:    NewSubscriptionManager(source, store),
		mutator: mutator,
	}
}

// Store trạng thái board (chỉ đọc)
func (b *Board) Store() *Store {
	return b.store
}

// Subscriptions manager của board
func (b *Board) Subscriptions() *SubscriptionManager {
	return b.subs
}

// SetDay đổi ngày đang xem
func (b *Board) SetDay(day string) error {
	return b.subs.SetDay(day)
}

// Close huỷ subscription
func (b *Board) Close() {
	b.subs.Close()
}

// Toggle đảo trạng thái một unit của ngày đang xem:
// unit void bị từ chối ngay; ngược lại gọi server trước, chỉ khi thành công mới cập nhật store.
// Lỗi server được log và trả về, store giữ nguyên cho tới snapshot tiếp theo.
func (b *Board) Toggle(ctx context.Context, groupKey, orderID, lineItemID string, unitIndex int) (*ordermodels.ToggleResult, error) {
	day := b.store.Day()
	if day == "" {
		return nil, ErrNoDay
	}
	ref := production.UnitRef{OrderID: orderID, LineItemID: lineItemID, UnitIndex: unitIndex}
	groups := b.store.Groups()
	gi, ui, err := production.FindUnit(groups, groupKey, ref)
	if err != nil {
		return nil, fmt.Errorf("toggle %s: %w", groupKey, err)
	}
	if groups[gi].ProgressItems[ui].IsVoided {
		return nil, ErrUnitVoided
	}

	cmd := ordermodels.ToggleCommand{
		Day:        day,
		GroupKey:   groupKey,
		OrderID:    orderID,
		LineItemID: lineItemID,
		UnitIndex:  unitIndex,
		RequestID:  uuid.NewString(),
	}
	log := logger.WithModule("board").WithFields(map[string]interface{}{
		"day":        day,
		"group_key":  groupKey,
		"order_id":   orderID,
		"line_item":  lineItemID,
		"unit_index": unitIndex,
		"request_id": cmd.RequestID,
	})

	res, err := b.mutator.ToggleUnit(ctx, cmd)
	if err != nil {
		log.WithError(err).Error("🧁 [BOARD] Toggle failed, state unchanged")
		return nil, err
	}

	completed := -1
	if res != nil {
		completed = res.Completed
	}
	b.store.applyConfirmed(day, groupKey, ref, completed)
	return res, nil
}
