package board

import (
	"sync"

	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/production"
)

// Store giữ trạng thái board của ngày đang chọn.
// Slice trả về từ Groups/Orders không bao giờ bị sửa tại chỗ: mọi thay đổi tạo slice mới.
type Store struct {
	mu      sync.RWMutex
	day     string
	groups  []ordermodels.GroupUnit
	orders  []ordermodels.Order
	loading bool
	lastErr error
	changed chan struct{}
}

// NewStore tạo store rỗng
func NewStore() *Store {
	return &Store{
		groups:  []ordermodels.GroupUnit{},
		orders:  []ordermodels.Order{},
		changed: make(chan struct{}, 1),
	}
}

// Changed báo hiệu mỗi khi trạng thái đổi; nhiều thay đổi liên tiếp gộp thành một tín hiệu
func (s *Store) Changed() <-chan struct{} {
	return s.changed
}

func (s *Store) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Day ngày đang hiển thị
func (s *Store) Day() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.day
}

// Groups batch hiện tại (chỉ đọc)
func (s *Store) Groups() []ordermodels.GroupUnit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups
}

// Orders đơn hiện tại (chỉ đọc)
func (s *Store) Orders() []ordermodels.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders
}

// Loading true từ lúc đổi ngày tới snapshot batch đầu tiên hoặc lỗi stream
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError lỗi stream gần nhất của ngày hiện tại
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Group tìm batch theo key
func (s *Store) Group(key string) (ordermodels.GroupUnit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.Key == key {
			return g, true
		}
	}
	return ordermodels.GroupUnit{}, false
}

func (s *Store) reset(day string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.day = day
	s.groups = []ordermodels.GroupUnit{}
	s.orders = []ordermodels.Order{}
	s.loading = day != ""
	s.lastErr = nil
	s.notify()
}

func (s *Store) replaceGroups(groups []ordermodels.GroupUnit) {
	if groups == nil {
		groups = []ordermodels.GroupUnit{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = groups
	s.loading = false
	s.notify()
}

func (s *Store) replaceOrders(orders []ordermodels.Order) {
	if orders == nil {
		orders = []ordermodels.Order{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = orders
	s.notify()
}

func (s *Store) streamFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastErr = err
	s.notify()
}

// applyConfirmed cập nhật unit sau khi server xác nhận toggle.
// completed < 0: không biết trạng thái server trả về, đảo trạng thái hiện tại.
// Ngày đã đổi hoặc unit đã đúng trạng thái (snapshot tới trước) thì không làm gì.
func (s *Store) applyConfirmed(day, key string, ref production.UnitRef, completed int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.day != day {
		return false
	}
	gi, ui, err := production.FindUnit(s.groups, key, ref)
	if err != nil {
		return false
	}
	if completed >= 0 && s.groups[gi].ProgressItems[ui].Completed == completed {
		return false
	}
	next, _, err := production.ToggleUnit(s.groups, key, ref)
	if err != nil {
		return false
	}
	s.groups = next
	s.notify()
	return true
}
