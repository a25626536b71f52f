// Package ordersvc chứa nghiệp vụ board theo ngày: sync từ commerce backend, đọc dữ liệu, toggle unit và stream.
package ordersvc

import (
	"context"
	"fmt"
	"time"

	"order_board/config"
	"order_board/internal/commerce"
	"order_board/internal/docstore"
	"order_board/internal/global"
	"order_board/internal/utility"
)

// OrderFetcher lấy đơn thô từ commerce backend
type OrderFetcher interface {
	FetchOrders(ctx context.Context, q commerce.OrdersQuery) ([]commerce.RawOrder, error)
}

// OrderService nghiệp vụ đơn hàng / batch theo ngày
type OrderService struct {
	store         docstore.Store
	fetcher       OrderFetcher
	loc           *time.Location
	lookbackDays  int
	printedPrefix string
	now           func() time.Time
}

// NewOrderService tạo service từ các global đã khởi tạo lúc start server
func NewOrderService() (*OrderService, error) {
	if global.DocStore == nil || global.CommerceClient == nil || global.ServerConfig == nil {
		return nil, fmt.Errorf("order service dependencies are not initialized")
	}
	return NewOrderServiceWith(global.DocStore, global.CommerceClient, global.ServerConfig)
}

// NewOrderServiceWith tạo service với dependency truyền vào
func NewOrderServiceWith(store docstore.Store, fetcher OrderFetcher, cfg *config.Configuration) (*OrderService, error) {
	loc, err := utility.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return nil, err
	}
	return &OrderService{
		store:         store,
		fetcher:       fetcher,
		loc:           loc,
		lookbackDays:  cfg.OrderLookbackDays,
		printedPrefix: cfg.PrintedTagPrefix,
		now:           time.Now,
	}, nil
}

// Store trả về document store đang dùng (stream hub dùng chung)
func (s *OrderService) Store() docstore.Store {
	return s.store
}

// Today ngày hiện tại theo múi giờ cửa hàng
func (s *OrderService) Today() string {
	return s.now().In(s.loc).Format(utility.DayLayout)
}
