package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	ordersvc "order_board/internal/api/order/service"
	"order_board/internal/global"
	"order_board/internal/logger"
	"order_board/internal/worker"

	"github.com/gofiber/fiber/v3"
)

// initLogger khởi tạo logger từ biến môi trường
func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

// startResyncWorker chạy worker sync lại các ngày hoạt động
func startResyncWorker(ctx context.Context) {
	cfg := global.ServerConfig
	log := logger.GetAppLogger()
	if !cfg.ResyncEnabled {
		log.Info("🔄 [RESYNC] Worker disabled")
		return
	}

	svc, err := ordersvc.NewOrderService()
	if err != nil {
		log.WithError(err).Error("🔄 [RESYNC] Failed to create order service, continuing without resync worker")
		return
	}
	hub := ordersvc.SharedStreamHub(svc.Store())
	w := worker.NewOrderResyncWorker(
		svc,
		hub.ActiveDays,
		time.Duration(cfg.ResyncIntervalSeconds)*time.Second,
		time.Duration(cfg.ResyncActiveWindowHours)*time.Hour,
	)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("🔄 [RESYNC] Worker goroutine panic")
			}
		}()
		w.Start(ctx)
	}()
}

// runServer chạy Fiber tới khi nhận SIGINT/SIGTERM rồi dừng stream hub và đóng document store
func runServer(ctx context.Context, app *fiber.App) {
	log := logger.GetAppLogger()
	address := global.ServerConfig.Address

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"address":  address,
			"protocol": "HTTP",
		}).Info("Starting server with HTTP")
		errCh <- app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Error in Fiber Listen: %v", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Warn("Fiber shutdown incomplete")
	}
	// Dừng watch của các ngày trước khi đóng store
	ordersvc.SharedStreamHub(global.DocStore).Close()
	if err := global.DocStore.Close(shutdownCtx); err != nil {
		log.WithError(err).Warn("Document store close failed")
	}
}

func main() {
	initLogger()
	defer logger.Shutdown()

	InitGlobal()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := InitFiberApp()
	if err != nil {
		logger.GetAppLogger().Fatalf("Failed to initialize routes: %v", err)
	}

	startResyncWorker(ctx)
	runServer(ctx, app)
}
