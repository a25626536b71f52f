package commerce

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"order_board/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const sampleOrders = `{"orders":[
 {"id":5550001,"name":"#1001","createdAt":"2025-08-18T00:34:54-07:00",
  "customer":{"firstName":"Ana","lastName":" "},
  "deliveryPhone":"+1 604-555-0101",
  "tags":["Mon, 18 Aug 2025","3:30 PM - 5:45 PM"],
  "financialStatus":"PAID","total_price":"42.5",
  "lineItems":[
   {"id":"gid://shopify/LineItem/1","name":"Chocolate Cake","quantity":2,
    "selectedOptions":[{"name":"Cake Size","value":"8\""},{"name":"Add Message","value":"Yes"}],
    "properties":[{"name":"Message on cake","value":"Happy Birthday"},{"name":"Candles","value":3}]},
   {"id":2,"name":"Tip","quantity":1}
  ]},
 {"id":"5550002","name":"#1002","created_at":"2025-08-17T10:00:00-07:00","pickup_date":"2025-08-18",
  "customer":{"first_name":"Ben","last_name":"Li"},"delivery_phone":"6045550102",
  "tags":["Mon, 18 Aug 2025"],"financial_status":"VOIDED","ref_number":7,
  "line_items":[{"id":3,"name":"Baguette","quantity":1,"properties":[{"name":"message","value":null}]}]}
]}`

func TestNormalizeOrders(t *testing.T) {
	var body ordersResponse
	require.NoError(t, json.Unmarshal([]byte(sampleOrders), &body))
	orders := NormalizeOrders(body.Orders)
	require.Len(t, orders, 2)

	a := orders[0]
	assert.Equal(t, "5550001", a.ID)
	assert.Equal(t, 1001, a.Number)
	assert.Equal(t, 0, a.RefNumber)
	assert.Equal(t, "Ana", a.Customer.Name)
	assert.Equal(t, "+1 604-555-0101", a.Customer.Phone)
	assert.Equal(t, "42.50", a.TotalPrice)
	assert.Equal(t, 15*60+30, a.PickupTimeSort)
	assert.Equal(t, "2025-08-18T00:34:54-07:00", a.PickupAt)
	require.Len(t, a.Items, 2)

	cake := a.Items[0]
	assert.Equal(t, "gid://shopify/LineItem/1", cake.ID)
	assert.Equal(t, "5550001", cake.OrderID)
	assert.Equal(t, `8"`, cake.VariantSize)
	assert.Equal(t, []string{"Happy Birthday", "3"}, cake.CustomRaw)
	require.NotNil(t, cake.Message)
	assert.Equal(t, "Happy Birthday", *cake.Message)
	assert.Equal(t, "STANDARD", cake.CustomBucket)
	assert.Equal(t, "NOT_STARTED", cake.Status)

	b := orders[1]
	assert.Equal(t, "Ben Li", b.Customer.Name)
	assert.Equal(t, 7, b.RefNumber)
	assert.True(t, b.IsVoided())
	assert.Equal(t, "2025-08-18", b.PickupAt)
	assert.Equal(t, 0, b.PickupTimeSort)
	assert.Nil(t, b.Items[0].Message)
}

func TestNormalizeOrderFillsMissingLineItemIDs(t *testing.T) {
	const raw = `{"id":42,"name":"#1003","lineItems":[
	 {"id":null,"name":"Croissant","quantity":2},
	 {"name":"Baguette","quantity":1},
	 {"id":"7","name":"Scone","quantity":1},
	 {"id":"7","name":"Muffin","quantity":1}
	]}`
	var order RawOrder
	require.NoError(t, json.Unmarshal([]byte(raw), &order))

	got := NormalizeOrder(order)
	require.Len(t, got.Items, 4)
	ids := []string{got.Items[0].ID, got.Items[1].ID, got.Items[2].ID, got.Items[3].ID}
	assert.Equal(t, []string{"42-line-0", "42-line-1", "7", "42-line-3"}, ids)
}

func TestPickupTime(t *testing.T) {
	cases := []struct {
		tags    []string
		label   string
		minutes int
		ok      bool
	}{
		{[]string{"d", "3:30 PM - 5:45 PM"}, "3:30 PM", 930, true},
		{[]string{"d", "12:15 am"}, "12:15 am", 15, true},
		{[]string{"d", "12:00PM"}, "12:00PM", 720, true},
		{[]string{"d", "noon"}, "", 0, false},
		{[]string{"3:30 PM"}, "", 0, false},
		{nil, "", 0, false},
	}
	for _, c := range cases {
		label, minutes, ok := PickupTime(c.tags)
		assert.Equal(t, c.ok, ok, "%v", c.tags)
		assert.Equal(t, c.label, label)
		assert.Equal(t, c.minutes, minutes)
	}
}

func TestParseOrderNumberAndPrice(t *testing.T) {
	assert.Equal(t, 1001, ParseOrderNumber("#1001"))
	assert.Equal(t, 0, ParseOrderNumber("draft"))
	assert.Equal(t, "10.00", NormalizeTotalPrice("10"))
	assert.Equal(t, "0.30", NormalizeTotalPrice("0.3"))
	assert.Equal(t, "n/a", NormalizeTotalPrice("n/a"))
	assert.Equal(t, "", NormalizeTotalPrice(" "))
}

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	c := NewClient("http://commerce.test/", 2*time.Second)
	c.http.Dial = func(addr string) (net.Conn, error) { return ln.Dial() }
	return c
}

func TestFetchOrdersSendsWindowAndDecodes(t *testing.T) {
	var gotArgs *fasthttp.Args
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		gotArgs = &fasthttp.Args{}
		ctx.QueryArgs().CopyTo(gotArgs)
		if string(ctx.Path()) != "/orders" {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(sampleOrders)
	})

	from := time.Date(2025, 7, 19, 7, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 19, 7, 0, 0, 0, time.UTC)
	raw, err := c.FetchOrders(context.Background(), OrdersQuery{From: from, To: to, ExcludeTag: "Printed-2025-08-18", DueDate: "Mon, 18 Aug 2025"})
	require.NoError(t, err)
	assert.Len(t, raw, 2)

	require.NotNil(t, gotArgs)
	assert.Equal(t, "2025-07-19T07:00:00.000Z", string(gotArgs.Peek("from")))
	assert.Equal(t, "2025-08-19T07:00:00.000Z", string(gotArgs.Peek("to")))
	assert.Equal(t, "Printed-2025-08-18", string(gotArgs.Peek("excludeTag")))
	assert.Equal(t, "Mon, 18 Aug 2025", string(gotArgs.Peek("dueDate")))
}

func TestFetchErrorsBecomeBadGateway(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/fetchAllProducts" {
			ctx.SetBodyString("not json")
			return
		}
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	})

	_, err := c.FetchOrders(context.Background(), OrdersQuery{})
	assert.ErrorIs(t, err, common.ErrCommerceUnavailable)

	_, err = c.FetchProducts(context.Background())
	assert.ErrorIs(t, err, common.ErrCommerceUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.FetchOrders(ctx, OrdersQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchProducts(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"products":[{"id":"p1","title":"Croissant","productType":"Viennoiserie","variants":[{"id":"v1","price":"4.25","image":null}]}]}`)
	})
	products, err := c.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Viennoiserie", products[0].ProductType)
	assert.Nil(t, products[0].Variants[0].Image)
}
