package board

import (
	"context"
	"sync"

	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/docstore"
)

// LocalSource dùng trực tiếp docstore.Store trong cùng process (server nhúng board, test)
type LocalSource struct {
	store docstore.Store
}

// NewLocalSource tạo source/mutator từ document store
func NewLocalSource(store docstore.Store) *LocalSource {
	return &LocalSource{store: store}
}

// ToggleUnit gọi thẳng store
func (s *LocalSource) ToggleUnit(ctx context.Context, cmd ordermodels.ToggleCommand) (*ordermodels.ToggleResult, error) {
	return s.store.ToggleUnit(ctx, cmd)
}

// SubscribeGroups watch batch của ngày
func (s *LocalSource) SubscribeGroups(day string, onSnapshot func([]ordermodels.GroupUnit), onError func(error)) (Unsubscribe, error) {
	return watch(func(ctx context.Context) error {
		return s.store.WatchGroups(ctx, day, docstore.GroupsFunc(onSnapshot))
	}, onError), nil
}

// SubscribeOrders watch đơn của ngày
func (s *LocalSource) SubscribeOrders(day string, onSnapshot func([]ordermodels.Order), onError func(error)) (Unsubscribe, error) {
	return watch(func(ctx context.Context) error {
		return s.store.WatchOrders(ctx, day, docstore.OrdersFunc(onSnapshot))
	}, onError), nil
}

// watch chạy run trong goroutine riêng; unsubscribe huỷ ctx và chờ goroutine kết thúc
func watch(run func(ctx context.Context) error, onError func(error)) Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := run(ctx); err != nil && ctx.Err() == nil {
			onError(err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
