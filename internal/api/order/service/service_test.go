package ordersvc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"order_board/config"
	"order_board/internal/api/events"
	orderdto "order_board/internal/api/order/dto"
	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/commerce"
	"order_board/internal/common"
	"order_board/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2025-08-18"

type fakeFetcher struct {
	mu     sync.Mutex
	orders []commerce.RawOrder
	err    error
	last   commerce.OrdersQuery
}

func (f *fakeFetcher) FetchOrders(ctx context.Context, q commerce.OrdersQuery) ([]commerce.RawOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = q
	return f.orders, f.err
}

func rawOrder(id, name string, items ...string) commerce.RawOrder {
	var o commerce.RawOrder
	o.ID = flex(id)
	o.Name = name
	o.Tags = []string{"Mon, 18 Aug 2025", "9:00 AM - 11:00 AM"}
	o.DeliveryPhone = "+1 604 555 0101"
	o.TotalPrice = flex("12.5")
	for i, title := range items {
		o.LineItems = append(o.LineItems, lineItem(id+"-"+string(rune('a'+i)), title, 1))
	}
	return o
}

func newService(t *testing.T, fetcher *fakeFetcher) (*OrderService, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore(time.Hour)
	svc, err := NewOrderServiceWith(store, fetcher, &config.Configuration{
		BusinessTimezone:  "America/Vancouver",
		OrderLookbackDays: 30,
		PrintedTagPrefix:  "Printed-",
	})
	require.NoError(t, err)
	return svc, store
}

func TestSyncDayBuildsBatchesAndQueriesWindow(t *testing.T) {
	fetcher := &fakeFetcher{orders: []commerce.RawOrder{
		rawOrder("A", "#1001", "Croissant", "Tip"),
		rawOrder("B", "#1002", "Croissant"),
	}}
	svc, _ := newService(t, fetcher)

	res, err := svc.SyncDay(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Orders)
	assert.Equal(t, 1, res.Groups)
	assert.Equal(t, 2, res.Units)

	assert.Equal(t, "Printed-2025-08-18", fetcher.last.ExcludeTag)
	assert.Equal(t, "Mon, 18 Aug 2025", fetcher.last.DueDate)
	assert.Equal(t, time.Date(2025, 7, 19, 7, 0, 0, 0, time.UTC), fetcher.last.From.UTC())
	assert.Equal(t, time.Date(2025, 8, 19, 7, 0, 0, 0, time.UTC), fetcher.last.To.UTC())

	orders, err := svc.Orders(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, []int{orders[0].RefNumber, orders[1].RefNumber})
}

func TestSyncDayFetchFailureKeepsStoredData(t *testing.T) {
	fetcher := &fakeFetcher{orders: []commerce.RawOrder{rawOrder("A", "#1001", "Croissant")}}
	svc, _ := newService(t, fetcher)
	_, err := svc.SyncDay(context.Background(), day)
	require.NoError(t, err)

	fetcher.err = common.ErrCommerceUnavailable
	_, err = svc.SyncDay(context.Background(), day)
	assert.ErrorIs(t, err, common.ErrCommerceUnavailable)

	groups, _ := svc.Groups(context.Background(), day)
	assert.Len(t, groups, 1)

	_, err = svc.SyncDay(context.Background(), "18/08/2025")
	assert.ErrorIs(t, err, common.ErrInvalidFormat)
}

func TestResyncKeepsProgressAndRefNumbers(t *testing.T) {
	fetcher := &fakeFetcher{orders: []commerce.RawOrder{
		rawOrder("A", "#1001", "Croissant"),
		rawOrder("B", "#1002", "Croissant"),
	}}
	svc, _ := newService(t, fetcher)
	_, err := svc.SyncDay(context.Background(), day)
	require.NoError(t, err)

	groups, _ := svc.Groups(context.Background(), day)
	zero := 0
	_, err = svc.Toggle(context.Background(), orderdto.ToggleUnitInput{
		Day: day, GroupKey: groups[0].Key, OrderID: "B", LineItemID: "B-a", UnitIndex: &zero, RequestID: "r1",
	})
	require.NoError(t, err)

	// Backend trả thêm đơn C ở đầu danh sách và bỏ đơn A
	fetcher.orders = []commerce.RawOrder{rawOrder("C", "#1003", "Croissant"), rawOrder("B", "#1002", "Croissant")}
	_, err = svc.SyncDay(context.Background(), day)
	require.NoError(t, err)

	orders, _ := svc.Orders(context.Background(), day)
	require.Len(t, orders, 2)
	assert.Equal(t, "B", orders[0].ID)
	assert.Equal(t, 2, orders[0].RefNumber)
	assert.Equal(t, "C", orders[1].ID)
	assert.Equal(t, 3, orders[1].RefNumber)

	groups, _ = svc.Groups(context.Background(), day)
	assert.Equal(t, 2, groups[0].Need)
	assert.Equal(t, 1, groups[0].Done)
}

func TestAssignRefNumbers(t *testing.T) {
	orders := []ordermodels.Order{{ID: "x"}, {ID: "y", RefNumber: 10}, {ID: "z"}}
	AssignRefNumbers(orders, []ordermodels.Order{{ID: "z", RefNumber: 4}})
	assert.Equal(t, 11, orders[0].RefNumber)
	assert.Equal(t, 10, orders[1].RefNumber)
	assert.Equal(t, 4, orders[2].RefNumber)

	first := []ordermodels.Order{{ID: "a"}, {ID: "b"}}
	AssignRefNumbers(first, nil)
	assert.Equal(t, 1, first[0].RefNumber)
	assert.Equal(t, 2, first[1].RefNumber)
}

func TestToggleReplayAndErrors(t *testing.T) {
	fetcher := &fakeFetcher{orders: []commerce.RawOrder{rawOrder("A", "#1001", "Croissant")}}
	svc, _ := newService(t, fetcher)
	_, err := svc.SyncDay(context.Background(), day)
	require.NoError(t, err)
	groups, _ := svc.Groups(context.Background(), day)
	key := groups[0].Key

	zero := 0
	in := orderdto.ToggleUnitInput{Day: day, GroupKey: key, OrderID: "A", LineItemID: "A-a", UnitIndex: &zero, RequestID: "same"}
	first, err := svc.Toggle(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Done)

	again, err := svc.Toggle(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Equal(t, 1, again.Done)

	in.RequestID = ""
	generated, err := svc.Toggle(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, generated.RequestID)
	assert.Equal(t, 0, generated.Done)

	in.OrderID = "missing"
	_, err = svc.Toggle(context.Background(), in)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestViews(t *testing.T) {
	a := rawOrder("A", "#1001", "Chocolate Cake", "Tip")
	a.LineItems[0].Properties = []commerce.RawProperty{{Name: "Message", Value: flex("  Happy Birthday ")}}
	a.LineItems[0].SelectedOptions = []commerce.RawOption{{Name: "Size", Value: "8\""}}
	b := rawOrder("B", "#1002", "Baguette")
	b.FinancialStatus = "VOIDED"
	b.DeliveryPhone = "12345"

	svc, _ := newService(t, &fakeFetcher{orders: []commerce.RawOrder{a, b}})
	_, err := svc.SyncDay(context.Background(), day)
	require.NoError(t, err)

	pickups, err := svc.Pickups(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, pickups.Rows, 2)
	assert.Equal(t, "(604) 555-0101", pickups.Rows[0].PhoneNumber)
	assert.Equal(t, "9:00 AM", pickups.Rows[0].PickupTime)
	assert.Equal(t, []string{"Chocolate Cake (8\") ×1 -   Happy Birthday "}, pickups.Rows[0].Items)
	assert.Equal(t, "12345", pickups.Rows[1].PhoneNumber)
	assert.Equal(t, "12.50", pickups.Total, "voided orders are not counted")

	tickets, err := svc.MessageTickets(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "Happy Birthday", tickets[0].Message)
	assert.Equal(t, "Mon, 18 Aug 2025 | 9:00 AM - 11:00 AM", tickets[0].PickupLabel)

	board, err := svc.Board(context.Background(), day)
	require.NoError(t, err)
	assert.Len(t, board.Groups, 2)
	assert.Len(t, board.Orders, 2)
}

func TestFormatPhoneNumber(t *testing.T) {
	assert.Equal(t, "(604) 555-0101", FormatPhoneNumber("+1 604-555-0101"))
	assert.Equal(t, "(604) 555-0101", FormatPhoneNumber("6045550101"))
	assert.Equal(t, "+44 20 7946 0958", FormatPhoneNumber("+44 20 7946 0958"))
	assert.Equal(t, "", FormatPhoneNumber(""))
}

func TestStreamHubSharesWatchAndStopsWithLastClient(t *testing.T) {
	fetcher := &fakeFetcher{orders: []commerce.RawOrder{rawOrder("A", "#1001", "Croissant")}}
	svc, store := newService(t, fetcher)
	_, err := svc.SyncDay(context.Background(), day)
	require.NoError(t, err)

	hub := NewStreamHub(store)
	c1, stop1 := hub.Subscribe(day)
	c2, stop2 := hub.Subscribe(day)
	assert.Equal(t, []string{day}, hub.ActiveDays())

	for _, c := range []*StreamClient{c1, c2} {
		got := collect(t, c, 2)
		assert.Contains(t, got, StreamEventGroups)
		assert.Contains(t, got, StreamEventOrders)
	}

	groups, _ := svc.Groups(context.Background(), day)
	zero := 0
	_, err = svc.Toggle(context.Background(), orderdto.ToggleUnitInput{Day: day, GroupKey: groups[0].Key, OrderID: "A", LineItemID: "A-a", UnitIndex: &zero})
	require.NoError(t, err)

	got := collect(t, c1, 1)
	assert.Contains(t, string(got[StreamEventGroups]), `"done":1`)

	stop1()
	stop1()
	assert.Equal(t, []string{day}, hub.ActiveDays())
	stop2()
	assert.Empty(t, hub.ActiveDays())
}

// flakyWatchStore: lần WatchGroups đầu tiên thất bại ngay, các lần sau chạy bình thường
type flakyWatchStore struct {
	*docstore.MemoryStore
	groupWatches atomic.Int32
}

func (s *flakyWatchStore) WatchGroups(ctx context.Context, day string, fn docstore.GroupsFunc) error {
	if s.groupWatches.Add(1) == 1 {
		return errors.New("change stream closed")
	}
	return s.MemoryStore.WatchGroups(ctx, day, fn)
}

func TestStreamHubRestartsWatchAfterFailure(t *testing.T) {
	fetcher := &fakeFetcher{orders: []commerce.RawOrder{rawOrder("A", "#1001", "Croissant")}}
	svc, mem := newService(t, fetcher)
	_, err := svc.SyncDay(context.Background(), day)
	require.NoError(t, err)

	store := &flakyWatchStore{MemoryStore: mem}
	hub := NewStreamHub(store)

	// Client đầu vẫn giữ kết nối sau khi watch groups lỗi
	c1, stop1 := hub.Subscribe(day)
	defer stop1()
	got := collect(t, c1, 2)
	assert.Contains(t, got, StreamEventOrders)
	assert.Contains(t, string(got[StreamEventError]), `"collection":"groups"`)

	c2, stop2 := hub.Subscribe(day)
	defer stop2()
	got = collect(t, c2, 2)
	assert.Contains(t, got, StreamEventGroups)
	assert.Contains(t, got, StreamEventOrders)
	assert.NotContains(t, got, StreamEventError)
	assert.Equal(t, int32(2), store.groupWatches.Load())
	assert.Equal(t, []string{day}, hub.ActiveDays())

	// Client cũ rời đi không được gỡ hub mới
	stop1()
	assert.Equal(t, []string{day}, hub.ActiveDays())
	stop2()
	assert.Empty(t, hub.ActiveDays())
}

func TestStreamHubCloseStopsEveryDay(t *testing.T) {
	svc, store := newService(t, &fakeFetcher{orders: []commerce.RawOrder{rawOrder("A", "#1001", "Croissant")}})
	_, err := svc.SyncDay(context.Background(), day)
	require.NoError(t, err)

	hub := NewStreamHub(store)
	c1, stop1 := hub.Subscribe(day)
	_, stop2 := hub.Subscribe("2025-08-19")
	collect(t, c1, 2)

	assert.Equal(t, 2, hub.Close())
	assert.Empty(t, hub.ActiveDays())
	stop1()
	stop2()

	// Sau Close, toggle không còn được đẩy tới client cũ
	groups, _ := svc.Groups(context.Background(), day)
	zero := 0
	_, err = svc.Toggle(context.Background(), orderdto.ToggleUnitInput{Day: day, GroupKey: groups[0].Key, OrderID: "A", LineItemID: "A-a", UnitIndex: &zero})
	require.NoError(t, err)
	select {
	case <-c1.Notify():
		t.Fatal("closed hub still delivers snapshots")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSyncDayEmitsSyncEvent(t *testing.T) {
	const syncedDay = "2025-08-22"
	got := make(chan events.DataChangeEvent, 4)
	events.OnDataChanged(func(ctx context.Context, e events.DataChangeEvent) {
		if e.Day == syncedDay {
			got <- e
		}
	})

	svc, _ := newService(t, &fakeFetcher{orders: []commerce.RawOrder{rawOrder("A", "#1001", "Croissant")}})
	_, err := svc.SyncDay(context.Background(), syncedDay)
	require.NoError(t, err)

	select {
	case e := <-got:
		assert.Equal(t, events.OpSync, e.Operation)
		assert.Equal(t, events.CollectionDayOrders, e.CollectionName)
	case <-time.After(2 * time.Second):
		t.Fatal("sync event not emitted")
	}
}

// collect đọc event tới khi có đủ n loại event khác nhau
func collect(t *testing.T, c *StreamClient, n int) map[string][]byte {
	t.Helper()
	got := map[string][]byte{}
	deadline := time.After(2 * time.Second)
	for len(got) < n {
		select {
		case <-c.Notify():
			for _, e := range c.Drain() {
				got[e.Name] = e.Data
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %d", n, len(got))
		}
	}
	return got
}

func flex(s string) commerce.FlexString {
	return commerce.FlexString(s)
}

func lineItem(id, title string, qty int) commerce.RawLineItem {
	return commerce.RawLineItem{ID: flex(id), Name: title, Quantity: qty}
}
