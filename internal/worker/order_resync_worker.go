// Package worker chứa các job chạy nền của server.
package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"order_board/internal/api/events"
	orderdto "order_board/internal/api/order/dto"
	"order_board/internal/logger"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentResync số ngày được sync song song trong một lượt
const maxConcurrentResync = 3

// DaySyncer là phần nghiệp vụ worker cần: sync lại một ngày và biết hôm nay là ngày nào
type DaySyncer interface {
	SyncDay(ctx context.Context, day string) (*orderdto.SyncResult, error)
	Today() string
}

// ActiveDaysFunc trả về các ngày đang có client xem (stream)
type ActiveDaysFunc func() []string

type resyncOriginKey struct{}

// OrderResyncWorker định kỳ sync lại các ngày đang hoạt động để đơn mới/đơn bị huỷ từ commerce backend hiện lên board.
// Ngày hoạt động: hôm nay, ngày có client stream, ngày có sync/toggle trong activeWindow gần nhất.
type OrderResyncWorker struct {
	syncer       DaySyncer
	activeDays   ActiveDaysFunc
	interval     time.Duration
	activeWindow time.Duration

	mu      sync.Mutex
	touched map[string]time.Time
	now     func() time.Time
}

// NewOrderResyncWorker tạo worker và đăng ký theo dõi event thay đổi dữ liệu.
// interval < 30s được nâng lên 5 phút.
func NewOrderResyncWorker(syncer DaySyncer, activeDays ActiveDaysFunc, interval, activeWindow time.Duration) *OrderResyncWorker {
	if interval < 30*time.Second {
		interval = 5 * time.Minute
	}
	if activeWindow <= 0 {
		activeWindow = 12 * time.Hour
	}
	w := &OrderResyncWorker{
		syncer:       syncer,
		activeDays:   activeDays,
		interval:     interval,
		activeWindow: activeWindow,
		touched:      make(map[string]time.Time),
		now:          time.Now,
	}
	events.OnDataChanged(w.onDataChanged)
	return w
}

// onDataChanged ghi nhận ngày vừa được người dùng sync/toggle. Sync do chính worker chạy thì bỏ qua,
// nếu không ngày sẽ không bao giờ hết hoạt động.
func (w *OrderResyncWorker) onDataChanged(ctx context.Context, e events.DataChangeEvent) {
	if e.Day == "" || ctx.Value(resyncOriginKey{}) != nil {
		return
	}
	w.mu.Lock()
	w.touched[e.Day] = w.now()
	w.mu.Unlock()
}

// Days trả về danh sách ngày cần sync lại ở lượt này, đã sắp xếp
func (w *OrderResyncWorker) Days() []string {
	set := map[string]struct{}{w.syncer.Today(): {}}
	if w.activeDays != nil {
		for _, d := range w.activeDays() {
			set[d] = struct{}{}
		}
	}

	w.mu.Lock()
	cutoff := w.now().Add(-w.activeWindow)
	for d, at := range w.touched {
		if at.Before(cutoff) {
			delete(w.touched, d)
			continue
		}
		set[d] = struct{}{}
	}
	w.mu.Unlock()

	days := make([]string, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// RunOnce sync lại mọi ngày hoạt động, tối đa maxConcurrentResync ngày cùng lúc.
// Lỗi của một ngày không chặn các ngày khác; trả về số ngày sync thành công.
func (w *OrderResyncWorker) RunOnce(ctx context.Context) int {
	log := logger.GetAppLogger()
	days := w.Days()
	ctx = context.WithValue(ctx, resyncOriginKey{}, true)

	var (
		mu sync.Mutex
		ok int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentResync)
	for _, day := range days {
		g.Go(func() error {
			if _, err := w.syncer.SyncDay(gctx, day); err != nil {
				log.WithError(err).WithField("day", day).Warn("🔄 [RESYNC] Sync thất bại, giữ dữ liệu cũ và thử lại lượt sau")
				return nil
			}
			mu.Lock()
			ok++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if ok > 0 {
		log.WithFields(map[string]interface{}{
			"synced": ok,
			"days":   len(days),
		}).Debug("🔄 [RESYNC] Đã sync lại các ngày hoạt động")
	}
	return ok
}

// Start chạy worker tới khi ctx bị huỷ
func (w *OrderResyncWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval":     w.interval.String(),
		"activeWindow": w.activeWindow.String(),
	}).Info("🔄 [RESYNC] Starting Order Resync Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🔄 [RESYNC] Order Resync Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithField("panic", r).Error("🔄 [RESYNC] Panic khi sync lại, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()
				w.RunOnce(ctx)
			}()
		}
	}
}
