package ordersvc

import (
	"context"
	"encoding/json"
	"sync"

	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/docstore"
	"order_board/internal/logger"
	"order_board/internal/registry"
)

// Tên event SSE
const (
	StreamEventGroups = "groups"
	StreamEventOrders = "orders"
	StreamEventError  = "error"
)

// streamEventOrder thứ tự phát khi client nhận nhiều event dồn lại
var streamEventOrder = []string{StreamEventGroups, StreamEventOrders, StreamEventError}

// StreamEvent một event SSE: tên + JSON đầy đủ của collection
type StreamEvent struct {
	Name string
	Data []byte
}

// StreamClient là một kết nối SSE. Chỉ giữ bản mới nhất của mỗi loại event,
// client chậm bỏ qua snapshot trung gian nhưng không bao giờ mất snapshot cuối.
type StreamClient struct {
	mu      sync.Mutex
	pending map[string][]byte
	notify  chan struct{}
}

func newStreamClient() *StreamClient {
	return &StreamClient{pending: make(map[string][]byte), notify: make(chan struct{}, 1)}
}

func (c *StreamClient) push(name string, data []byte) {
	c.mu.Lock()
	c.pending[name] = data
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Notify báo có event mới
func (c *StreamClient) Notify() <-chan struct{} {
	return c.notify
}

// Drain lấy các event đang chờ theo thứ tự groups, orders, error
func (c *StreamClient) Drain() []StreamEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]StreamEvent, 0, len(c.pending))
	for _, name := range streamEventOrder {
		if data, ok := c.pending[name]; ok {
			events = append(events, StreamEvent{Name: name, Data: data})
		}
	}
	c.pending = make(map[string][]byte)
	return events
}

// dayHub chia sẻ một cặp watch (groups, orders) của một ngày cho mọi client đang xem.
// Hub có watch lỗi (failed) bị gỡ khỏi registry nhưng vẫn phục vụ client cũ tới khi họ rời đi.
type dayHub struct {
	day     string
	mu      sync.Mutex
	clients map[*StreamClient]struct{}
	last    map[string][]byte
	cancel  context.CancelFunc
	closed  bool
	failed  bool
}

// add trả về false nếu hub đã đóng (client cuối vừa rời đi)
func (h *dayHub) add(c *StreamClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	for name, data := range h.last {
		c.push(name, data)
	}
	return true
}

// remove trả về true nếu đây là client cuối và hub đã đóng
func (h *dayHub) remove(c *StreamClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if len(h.clients) > 0 || h.closed {
		return false
	}
	h.closed = true
	h.cancel()
	return true
}

// fail đánh dấu hub có watch đã dừng vì lỗi; trả về true ở lần gọi đầu
func (h *dayHub) fail() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failed || h.closed {
		return false
	}
	h.failed = true
	return true
}

// shutdown dừng mọi watch của hub, client còn lại không nhận thêm event
func (h *dayHub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.cancel()
}

func (h *dayHub) broadcast(name string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.last[name] = data
	for c := range h.clients {
		c.push(name, data)
	}
}

// StreamHub quản lý các dayHub theo ngày trong một Registry
type StreamHub struct {
	store docstore.Store
	hubs  *registry.Registry[*dayHub]
}

// NewStreamHub tạo hub trên store
func NewStreamHub(store docstore.Store) *StreamHub {
	return &StreamHub{store: store, hubs: registry.NewRegistry[*dayHub]()}
}

var (
	sharedHub     *StreamHub
	sharedHubOnce sync.Once
)

// SharedStreamHub trả về hub dùng chung của process (handler stream và worker re-sync cùng nhìn một hub)
func SharedStreamHub(store docstore.Store) *StreamHub {
	sharedHubOnce.Do(func() {
		sharedHub = NewStreamHub(store)
	})
	return sharedHub
}

// Subscribe đăng ký client cho ngày. Client mới nhận ngay snapshot gần nhất (nếu đã có).
// Hàm trả về dùng để huỷ đăng ký; client cuối rời đi thì watch của ngày dừng.
func (s *StreamHub) Subscribe(day string) (*StreamClient, func()) {
	client := newStreamClient()
	for {
		hub, err := s.hubs.GetOrCreate(day, func() (*dayHub, error) {
			return s.start(day), nil
		})
		if err != nil {
			continue
		}
		if hub.add(client) {
			var once sync.Once
			return client, func() {
				once.Do(func() {
					if hub.remove(client) {
						s.hubs.ClearIf(day, func(current *dayHub) bool { return current == hub })
					}
				})
			}
		}
		// Hub vừa đóng: gỡ khỏi registry rồi tạo hub mới
		s.hubs.ClearIf(day, func(current *dayHub) bool { return current == hub })
	}
}

// ActiveDays các ngày đang có client xem
func (s *StreamHub) ActiveDays() []string {
	return s.hubs.Keys()
}

// Close dừng watch của mọi ngày, gọi khi server shutdown
func (s *StreamHub) Close() int {
	count := s.hubs.ClearAll(func(hub *dayHub) {
		hub.shutdown()
	})
	logger.WithModule("stream").WithField("hubs", count).Info("📡 [STREAM] Stream hubs stopped")
	return count
}

func (s *StreamHub) start(day string) *dayHub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &dayHub{
		day:     day,
		clients: make(map[*StreamClient]struct{}),
		last:    make(map[string][]byte),
		cancel:  cancel,
	}
	log := logger.WithModule("stream").WithField("day", day)
	log.Info("📡 [STREAM] Start watching day")

	go s.run(ctx, hub, StreamEventGroups, func(ctx context.Context, emit func(interface{})) error {
		return s.store.WatchGroups(ctx, day, func(groups []ordermodels.GroupUnit) { emit(groups) })
	})
	go s.run(ctx, hub, StreamEventOrders, func(ctx context.Context, emit func(interface{})) error {
		return s.store.WatchOrders(ctx, day, func(orders []ordermodels.Order) { emit(orders) })
	})
	return hub
}

// run chạy một watch; lỗi được log và báo cho client, dữ liệu cuối vẫn giữ nguyên
func (s *StreamHub) run(ctx context.Context, hub *dayHub, name string, watch func(context.Context, func(interface{})) error) {
	log := logger.WithModule("stream").WithFields(map[string]interface{}{"day": hub.day, "collection": name})
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("📡 [STREAM] Watch panicked")
		}
	}()

	err := watch(ctx, func(v interface{}) {
		data, err := json.Marshal(v)
		if err != nil {
			log.WithError(err).Error("📡 [STREAM] Cannot encode snapshot")
			return
		}
		hub.broadcast(name, data)
	})
	if err != nil && ctx.Err() == nil {
		log.WithError(err).Error("📡 [STREAM] Watch stopped with error, keeping last snapshot")
		// Gỡ hub trước khi báo lỗi: client subscribe lại sau khi thấy lỗi sẽ có watch mới
		if hub.fail() {
			s.hubs.ClearIf(hub.day, func(current *dayHub) bool { return current == hub })
		}
		msg, _ := json.Marshal(map[string]string{"collection": name, "message": err.Error()})
		hub.broadcast(StreamEventError, msg)
		return
	}
	log.Debug("📡 [STREAM] Watch stopped")
}
