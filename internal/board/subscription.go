package board

import (
	"errors"
	"fmt"
	"sync"

	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/logger"

	"github.com/sirupsen/logrus"
)

// SubscriptionState trạng thái subscription của một collection
type SubscriptionState int

const (
	StateUnsubscribed SubscriptionState = iota
	StateSubscribing
	StateActive
)

func (s SubscriptionState) String() string {
	switch s {
	case StateSubscribing:
		return "SUBSCRIBING"
	case StateActive:
		return "ACTIVE"
	default:
		return "UNSUBSCRIBED"
	}
}

type subscription struct {
	state       SubscriptionState
	unsubscribe Unsubscribe
}

// SubscriptionManager giữ tối đa một subscription cho mỗi collection, cho đúng một ngày.
// Mỗi lần đổi ngày tăng generation: callback mang generation cũ bị bỏ qua.
type SubscriptionManager struct {
	source SnapshotSource
	store  *Store
	log    *logrus.Entry

	lifecycle sync.Mutex // tuần tự hoá SetDay/Close

	mu         sync.Mutex
	generation uint64
	day        string
	subs       map[string]*subscription
}

// NewSubscriptionManager tạo manager ghi snapshot vào store
func NewSubscriptionManager(source SnapshotSource, store *Store) *SubscriptionManager {
	return &SubscriptionManager{
		source: source,
		store:  store,
		log:    logger.WithModule("board"),
		subs: map[string]*subscription{
			CollectionGroups: {state: StateUnsubscribed},
			CollectionOrders: {state: StateUnsubscribed},
		},
	}
}

// Day ngày đang subscribe ("" nếu chưa có)
func (m *SubscriptionManager) Day() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.day
}

// State trạng thái của một collection
func (m *SubscriptionManager) State(collection string) SubscriptionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subs[collection]; ok {
		return sub.state
	}
	return StateUnsubscribed
}

// SetDay chuyển sang ngày mới: huỷ hết subscription cũ rồi mới subscribe groups và orders của ngày mới.
// Chọn lại đúng ngày đang subscribe thì không làm gì; nếu stream của ngày đó đã lỗi thì subscribe lại.
func (m *SubscriptionManager) SetDay(day string) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	same := m.day == day &&
		m.subs[CollectionGroups].state != StateUnsubscribed &&
		m.subs[CollectionOrders].state != StateUnsubscribed
	m.mu.Unlock()
	if same {
		return nil
	}

	m.teardown()

	m.mu.Lock()
	m.day = day
	gen := m.generation
	m.subs[CollectionGroups].state = StateSubscribing
	m.subs[CollectionOrders].state = StateSubscribing
	m.mu.Unlock()
	m.store.reset(day)

	m.log.WithField("day", day).Info("🧁 [BOARD] Subscribing day")

	var errs []error
	unsubGroups, err := m.source.SubscribeGroups(day, m.onGroups(gen), m.onError(gen, CollectionGroups))
	errs = append(errs, m.attach(gen, CollectionGroups, unsubGroups, err))
	unsubOrders, err := m.source.SubscribeOrders(day, m.onOrders(gen), m.onError(gen, CollectionOrders))
	errs = append(errs, m.attach(gen, CollectionOrders, unsubOrders, err))
	return errors.Join(errs...)
}

// Close huỷ mọi subscription
func (m *SubscriptionManager) Close() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	m.teardown()
	m.mu.Lock()
	m.day = ""
	m.mu.Unlock()
}

// teardown tăng generation và gọi unsubscribe của cả hai collection.
// Không giữ mu khi gọi unsubscribe vì source có thể chờ goroutine đang gọi callback.
func (m *SubscriptionManager) teardown() {
	m.mu.Lock()
	m.generation++
	var handles []Unsubscribe
	for _, sub := range m.subs {
		if sub.unsubscribe != nil {
			handles = append(handles, sub.unsubscribe)
		}
		sub.unsubscribe = nil
		sub.state = StateUnsubscribed
	}
	m.mu.Unlock()

	for _, unsub := range handles {
		unsub()
	}
}

func (m *SubscriptionManager) attach(gen uint64, collection string, unsub Unsubscribe, err error) error {
	if err != nil {
		m.mu.Lock()
		if gen == m.generation {
			m.subs[collection].state = StateUnsubscribed
		}
		m.mu.Unlock()
		m.store.streamFailed(err)
		m.log.WithError(err).WithField("collection", collection).Error("🧁 [BOARD] Subscribe failed")
		return fmt.Errorf("subscribe %s: %w", collection, err)
	}

	m.mu.Lock()
	m.subs[collection].unsubscribe = unsub
	m.mu.Unlock()
	return nil
}

func (m *SubscriptionManager) onGroups(gen uint64) func([]ordermodels.GroupUnit) {
	return func(groups []ordermodels.GroupUnit) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.generation {
			return
		}
		m.subs[CollectionGroups].state = StateActive
		m.store.replaceGroups(groups)
	}
}

func (m *SubscriptionManager) onOrders(gen uint64) func([]ordermodels.Order) {
	return func(orders []ordermodels.Order) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.generation {
			return
		}
		m.subs[CollectionOrders].state = StateActive
		m.store.replaceOrders(orders)
	}
}

// onError: luồng đã chết, giữ nguyên dữ liệu cuối cùng. Handle vẫn được giữ để teardown gọi.
func (m *SubscriptionManager) onError(gen uint64, collection string) func(error) {
	return func(err error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.generation {
			return
		}
		m.subs[collection].state = StateUnsubscribed
		m.store.streamFailed(err)
		m.log.WithError(err).WithFields(logrus.Fields{
			"collection": collection,
			"day":        m.day,
		}).Warn("🧁 [BOARD] Snapshot stream failed, keeping last data")
	}
}
