package docstore

import (
	"context"
	"sync"
	"time"

	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/production"
)

const (
	collectionGroups = "groups"
	collectionOrders = "orders"
)

type memoryDay struct {
	orders []ordermodels.Order
	groups []ordermodels.GroupUnit
}

type memoryListener struct {
	day        string
	collection string
	notify     chan struct{}
}

// MemoryStore giữ dữ liệu trong RAM, dùng cho dev và test
type MemoryStore struct {
	mu        sync.Mutex
	days      map[string]*memoryDay
	requests  map[string]ordermodels.ToggleRequestRecord
	listeners map[*memoryListener]struct{}
	dedupeTTL time.Duration
	now       func() time.Time
}

// NewMemoryStore tạo store trong RAM
func NewMemoryStore(dedupeTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		days:      make(map[string]*memoryDay),
		requests:  make(map[string]ordermodels.ToggleRequestRecord),
		listeners: make(map[*memoryListener]struct{}),
		dedupeTTL: dedupeTTL,
		now:       time.Now,
	}
}

func cloneGroups(groups []ordermodels.GroupUnit) []ordermodels.GroupUnit {
	out := make([]ordermodels.GroupUnit, len(groups))
	for i, g := range groups {
		g.ProgressItems = append([]ordermodels.GroupProgressItem(nil), g.ProgressItems...)
		g.Progress = append([]bool(nil), g.Progress...)
		g.SelectedOptions = append([]ordermodels.OptionCount(nil), g.SelectedOptions...)
		out[i] = g
	}
	return out
}

func cloneOrders(orders []ordermodels.Order) []ordermodels.Order {
	out := make([]ordermodels.Order, len(orders))
	for i, o := range orders {
		o.Items = append([]ordermodels.OrderItem(nil), o.Items...)
		o.Tags = append([]string(nil), o.Tags...)
		out[i] = o
	}
	return out
}

func (s *MemoryStore) Groups(ctx context.Context, day string) ([]ordermodels.GroupUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[day]
	if !ok {
		return []ordermodels.GroupUnit{}, nil
	}
	return cloneGroups(d.groups), nil
}

func (s *MemoryStore) Orders(ctx context.Context, day string) ([]ordermodels.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[day]
	if !ok {
		return []ordermodels.Order{}, nil
	}
	return cloneOrders(d.orders), nil
}

func (s *MemoryStore) ReplaceDay(ctx context.Context, day string, rebuild RebuildFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var priorOrders []ordermodels.Order
	var priorGroups []ordermodels.GroupUnit
	if d, ok := s.days[day]; ok {
		priorOrders = cloneOrders(d.orders)
		priorGroups = cloneGroups(d.groups)
	}

	orders, groups, err := rebuild(priorOrders, priorGroups)
	if err != nil {
		return err
	}
	prepareDay(day, orders, groups, priorGroups)
	SortOrders(orders)
	SortGroups(groups)

	s.days[day] = &memoryDay{orders: cloneOrders(orders), groups: cloneGroups(groups)}
	s.notifyLocked(day, collectionOrders)
	s.notifyLocked(day, collectionGroups)
	return nil
}

func (s *MemoryStore) ToggleUnit(ctx context.Context, cmd ordermodels.ToggleCommand) (*ordermodels.ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if cmd.RequestID != "" {
		if rec, ok := s.requests[cmd.RequestID]; ok && isFresh(rec, now, s.dedupeTTL) {
			res := rec.Result()
			return &res, nil
		}
	}

	d, ok := s.days[cmd.Day]
	if !ok {
		return nil, toggleError(production.ErrBatchNotFound, cmd)
	}
	pos := -1
	for i := range d.groups {
		if d.groups[i].Key == cmd.GroupKey {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, toggleError(production.ErrBatchNotFound, cmd)
	}

	updated, res, err := applyToggle(d.groups[pos], cmd)
	if err != nil {
		return nil, err
	}

	next := make([]ordermodels.GroupUnit, len(d.groups))
	copy(next, d.groups)
	next[pos] = updated
	d.groups = next

	if cmd.RequestID != "" {
		s.requests[cmd.RequestID] = ordermodels.NewToggleRequestRecord(res, now)
		s.evictRequestsLocked(now)
	}
	s.notifyLocked(cmd.Day, collectionGroups)
	return &res, nil
}

func (s *MemoryStore) evictRequestsLocked(now time.Time) {
	if s.dedupeTTL <= 0 {
		return
	}
	for id, rec := range s.requests {
		if !isFresh(rec, now, s.dedupeTTL) {
			delete(s.requests, id)
		}
	}
}

func (s *MemoryStore) WatchGroups(ctx context.Context, day string, fn GroupsFunc) error {
	return s.watch(ctx, day, collectionGroups, func() error {
		groups, err := s.Groups(ctx, day)
		if err != nil {
			return err
		}
		fn(groups)
		return nil
	})
}

func (s *MemoryStore) WatchOrders(ctx context.Context, day string, fn OrdersFunc) error {
	return s.watch(ctx, day, collectionOrders, func() error {
		orders, err := s.Orders(ctx, day)
		if err != nil {
			return err
		}
		fn(orders)
		return nil
	})
}

func (s *MemoryStore) watch(ctx context.Context, day, collection string, deliver func() error) error {
	l := &memoryListener{day: day, collection: collection, notify: make(chan struct{}, 1)}
	s.mu.Lock()
	s.listeners[l] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.listeners, l)
		s.mu.Unlock()
	}()

	if err := deliver(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.notify:
			if err := deliver(); err != nil {
				return err
			}
		}
	}
}

// notifyLocked báo cho listener của (day, collection); nhiều thay đổi liên tiếp gộp làm một
func (s *MemoryStore) notifyLocked(day, collection string) {
	for l := range s.listeners {
		if l.day != day || l.collection != collection {
			continue
		}
		select {
		case l.notify <- struct{}{}:
		default:
		}
	}
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
