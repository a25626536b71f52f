// Package commerce gọi API trung gian của commerce backend (đơn hàng theo khung thời gian, catalog sản phẩm).
package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	productmodels "order_board/internal/api/product/models"
	"order_board/internal/common"
	"order_board/internal/logger"
	"order_board/internal/utility"

	"github.com/valyala/fasthttp"
)

// OrdersQuery tham số của GET /orders
type OrdersQuery struct {
	From       time.Time
	To         time.Time
	ExcludeTag string
	DueDate    string
}

// Client là HTTP client tới commerce backend
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

// NewClient tạo client với base URL (ví dụ https://api.example.com) và timeout cho mỗi request
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "order-board",
			MaxConnsPerHost:     16,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

func (c *Client) ordersURL(q OrdersQuery) string {
	params := url.Values{}
	params.Set("from", utility.ISOMillis(q.From))
	params.Set("to", utility.ISOMillis(q.To))
	params.Set("excludeTag", q.ExcludeTag)
	if q.DueDate != "" {
		params.Set("dueDate", q.DueDate)
	}
	return c.baseURL + "/orders?" + params.Encode()
}

// FetchOrders lấy đơn thô trong khung [From, To) trừ các đơn mang ExcludeTag
func (c *Client) FetchOrders(ctx context.Context, q OrdersQuery) ([]RawOrder, error) {
	var body ordersResponse
	if err := c.getJSON(ctx, c.ordersURL(q), &body); err != nil {
		return nil, err
	}
	if body.Orders == nil {
		body.Orders = []RawOrder{}
	}
	return body.Orders, nil
}

// FetchProducts lấy toàn bộ catalog
func (c *Client) FetchProducts(ctx context.Context) ([]productmodels.Product, error) {
	var body struct {
		Products []productmodels.Product `json:"products"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/fetchAllProducts", &body); err != nil {
		return nil, err
	}
	if body.Products == nil {
		return nil, common.WrapDetails(common.ErrCommerceUnavailable, "response has no products field")
	}
	return body.Products, nil
}

// deadline lấy hạn sớm hơn giữa ctx và timeout của client
func (c *Client) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func (c *Client) getJSON(ctx context.Context, target string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := logger.WithContext(ctx).WithField("url", target)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		log.WithError(err).Error("🛒 [COMMERCE] Request failed")
		return common.WrapDetails(common.ErrCommerceUnavailable, err.Error())
	}

	status := resp.StatusCode()
	log = log.WithFields(map[string]interface{}{
		"status":      status,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	if status != fasthttp.StatusOK {
		snippet := string(resp.Body())
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		log.WithField("response", snippet).Error("🛒 [COMMERCE] Backend returned an error")
		return common.WrapDetails(common.ErrCommerceUnavailable, fmt.Sprintf("status %d", status))
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		log.WithError(err).Error("🛒 [COMMERCE] Cannot decode response")
		return common.WrapDetails(common.ErrCommerceUnavailable, "invalid JSON from commerce backend")
	}
	log.Debug("🛒 [COMMERCE] Request completed")
	return nil
}
