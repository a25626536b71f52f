package orderhdl

import (
	"bufio"
	"fmt"
	"time"

	basehdl "order_board/internal/api/base/handler"
	ordersvc "order_board/internal/api/order/service"
	"order_board/internal/logger"

	"github.com/gofiber/fiber/v3"
)

// streamHeartbeat chu kỳ gửi comment giữ kết nối và phát hiện client đã ngắt
const streamHeartbeat = 15 * time.Second

// WriteEvent ghi một event SSE
func WriteEvent(w *bufio.Writer, e ordersvc.StreamEvent) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, e.Data); err != nil {
		return err
	}
	return nil
}

// HandleStream xử lý GET /days/:day/stream (Server-Sent Events).
// Mỗi event là toàn bộ collection: "groups" hoặc "orders"; "error" khi watch của server dừng.
func (h *OrderHandler) HandleStream(c fiber.Ctx) error {
	day, err := basehdl.DayParam(c)
	if err != nil {
		return basehdl.HandleResponse(c, nil, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// fiber.Ctx không dùng được sau khi handler trả về: lấy trước mọi thứ cần cho log
	log := logger.WithRequest(c).WithField("day", day)
	client, unsubscribe := h.StreamHub.Subscribe(day)
	log.Info("📡 [STREAM] Client connected")

	c.Response().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			unsubscribe()
			log.Info("📡 [STREAM] Client disconnected")
		}()

		ticker := time.NewTicker(streamHeartbeat)
		defer ticker.Stop()

		if _, err := w.WriteString("retry: 3000\n\n"); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case <-client.Notify():
				for _, e := range client.Drain() {
					if err := WriteEvent(w, e); err != nil {
						return
					}
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}
