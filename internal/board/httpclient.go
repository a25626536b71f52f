package board

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/logger"

	"github.com/valyala/fasthttp"
)

const (
	streamEventGroups = "groups"
	streamEventOrders = "orders"
	streamEventError  = "error"

	// maxEventSize giới hạn một event SSE (toàn bộ batch của một ngày)
	maxEventSize = 8 << 20
)

// ErrStreamClosed server đóng stream mà client chưa huỷ
var ErrStreamClosed = errors.New("board: snapshot stream closed by server")

// RemoteError lỗi server trả về cho một request hợp lệ về mặt transport (không retry)
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// HTTPClient nói chuyện với order_board server: SSE cho snapshot, POST /toggleGroupUnit cho toggle
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	retries int
	http    *fasthttp.Client
	dial    fasthttp.DialFunc
}

// NewHTTPClient tạo client tới server (ví dụ http://localhost:8080).
// retries: số lần gửi lại toggle khi lỗi transport, cùng requestId.
func NewHTTPClient(baseURL string, timeout time.Duration, retries int) *HTTPClient {
	if retries < 0 {
		retries = 0
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		retries: retries,
		http: &fasthttp.Client{
			Name:         "order-board-client",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		dial: fasthttp.Dial,
	}
}

type envelope struct {
	Code    interface{}     `json:"code"`
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// ToggleUnit gửi lệnh toggle. Lỗi transport được thử lại với cùng requestId; server dedupe.
func (c *HTTPClient) ToggleUnit(ctx context.Context, cmd ordermodels.ToggleCommand) (*ordermodels.ToggleResult, error) {
	body, err := json.Marshal(map[string]interface{}{
		"day":        cmd.Day,
		"groupKey":   cmd.GroupKey,
		"orderId":    cmd.OrderID,
		"lineItemId": cmd.LineItemID,
		"unitIndex":  cmd.UnitIndex,
		"requestId":  cmd.RequestID,
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
			logger.WithModule("board").WithFields(map[string]interface{}{
				"attempt":    attempt,
				"request_id": cmd.RequestID,
			}).Warn("🧁 [BOARD] Retrying toggle")
		}
		res, err := c.postToggle(ctx, body)
		if err == nil {
			return res, nil
		}
		var remote *RemoteError
		if errors.As(err, &remote) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("toggle %s: %w", cmd.RequestID, lastErr)
}

func (c *HTTPClient) postToggle(ctx context.Context, body []byte) (*ordermodels.ToggleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/api/v1/toggleGroupUnit")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, &RemoteError{StatusCode: resp.StatusCode(), Message: "invalid response body"}
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &RemoteError{StatusCode: resp.StatusCode(), Code: fmt.Sprint(env.Code), Message: env.Message}
	}
	var res ordermodels.ToggleResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return nil, &RemoteError{StatusCode: resp.StatusCode(), Message: "invalid toggle result"}
	}
	return &res, nil
}

// SubscribeGroups mở stream của ngày và chỉ nhận event "groups"
func (c *HTTPClient) SubscribeGroups(day string, onSnapshot func([]ordermodels.GroupUnit), onError func(error)) (Unsubscribe, error) {
	return c.subscribe(day, streamEventGroups, func(data []byte) error {
		var groups []ordermodels.GroupUnit
		if err := json.Unmarshal(data, &groups); err != nil {
			return err
		}
		onSnapshot(groups)
		return nil
	}, onError), nil
}

// SubscribeOrders mở stream của ngày và chỉ nhận event "orders"
func (c *HTTPClient) SubscribeOrders(day string, onSnapshot func([]ordermodels.Order), onError func(error)) (Unsubscribe, error) {
	return c.subscribe(day, streamEventOrders, func(data []byte) error {
		var orders []ordermodels.Order
		if err := json.Unmarshal(data, &orders); err != nil {
			return err
		}
		onSnapshot(orders)
		return nil
	}, onError), nil
}

// subscribe mở một kết nối SSE riêng. Unsubscribe đóng kết nối và chờ goroutine đọc kết thúc.
func (c *HTTPClient) subscribe(day, event string, handle func([]byte) error, onError func(error)) Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu   sync.Mutex
		conn net.Conn
	)
	streamClient := &fasthttp.Client{
		Name:               "order-board-stream",
		StreamResponseBody: true,
		Dial: func(addr string) (net.Conn, error) {
			cn, err := c.dial(addr)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			defer mu.Unlock()
			if ctx.Err() != nil {
				cn.Close()
				return nil, ctx.Err()
			}
			conn = cn
			return cn, nil
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := c.readStream(streamClient, day, event, handle)
		if err != nil && ctx.Err() == nil {
			onError(err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			mu.Lock()
			if conn != nil {
				conn.Close()
			}
			mu.Unlock()
			<-done
		})
	}
}

func (c *HTTPClient) readStream(client *fasthttp.Client, day, event string, handle func([]byte) error) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/api/v1/days/" + day + "/stream")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "text/event-stream")

	if err := client.Do(req, resp); err != nil {
		return err
	}
	defer func() { _ = resp.CloseBodyStream() }()
	if resp.StatusCode() != fasthttp.StatusOK {
		return &RemoteError{StatusCode: resp.StatusCode(), Message: "stream rejected"}
	}

	body := resp.BodyStream()
	if body == nil {
		return readEvents(bytes.NewReader(resp.Body()), event, handle)
	}
	return readEvents(body, event, handle)
}

// readEvents đọc SSE tới khi stream kết thúc. Event "error" từ server kết thúc subscription.
func readEvents(r io.Reader, want string, handle func([]byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	var (
		name    string
		data    []byte
		hasData bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if name == streamEventError && streamErrorFor(data, want) {
				return fmt.Errorf("server stream error: %s", data)
			}
			if name == want && hasData {
				if err := handle(data); err != nil {
					return fmt.Errorf("decode %s snapshot: %w", want, err)
				}
			}
			name, data, hasData = "", nil, false
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			chunk := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if hasData {
				data = append(data, '\n')
			}
			data = append(data, chunk...)
			hasData = true
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return ErrStreamClosed
}

// streamErrorFor: event "error" của server ghi collection bị lỗi; thiếu thông tin thì coi như lỗi chung
func streamErrorFor(data []byte, collection string) bool {
	var payload struct {
		Collection string `json:"collection"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Collection == "" {
		return true
	}
	return payload.Collection == collection
}
