// Package events cung cấp cơ chế event trung tâm khi dữ liệu của một ngày thay đổi.
// Service sync và toggle phát event; worker re-sync và audit đăng ký qua OnDataChanged.
package events

import (
	"context"
	"sync"

	"order_board/internal/logger"
)

// Các loại thao tác ghi
const (
	OpSync   = "sync"
	OpToggle = "toggle"
)

// Tên collection dùng trong event
const (
	CollectionDayOrders = "day_orders"
	CollectionDayGroups = "day_groups"
)

// DataChangeEvent mô tả sự kiện thay đổi dữ liệu của một ngày.
// Document là bản ghi sau khi thay đổi (có thể nil).
type DataChangeEvent struct {
	CollectionName string
	Operation      string
	Day            string
	Document       interface{}
}

// DataChangeHandler xử lý sự kiện thay đổi dữ liệu.
type DataChangeHandler func(ctx context.Context, e DataChangeEvent)

var (
	handlers   []DataChangeHandler
	handlersMu sync.RWMutex
)

// OnDataChanged đăng ký handler. Gọi khi init.
func OnDataChanged(h DataChangeHandler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = append(handlers, h)
}

// EmitDataChanged phát sự kiện.
// Mỗi handler chạy trong goroutine riêng, panic được recover để không ảnh hưởng handler khác.
// ctx truyền cho handler tách khỏi cancel của request gốc.
func EmitDataChanged(ctx context.Context, e DataChangeEvent) {
	handlersMu.RLock()
	list := make([]DataChangeHandler, len(handlers))
	copy(list, handlers)
	handlersMu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, h := range list {
		go func(fn DataChangeHandler) {
			defer func() {
				if r := recover(); r != nil {
					logger.GetAppLogger().WithFields(map[string]interface{}{
						"collection": e.CollectionName,
						"operation":  e.Operation,
						"day":        e.Day,
						"panic":      r,
					}).Error("Data change handler panicked")
				}
			}()
			fn(detached, e)
		}(h)
	}
}

// resetHandlers chỉ dùng trong test
func resetHandlers() {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = nil
}
