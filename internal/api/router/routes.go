// Package router gom route của các domain vào app Fiber.
package router

import (
	"time"

	"order_board/internal/global"

	"github.com/gofiber/fiber/v3"
)

// RoutePrefix chứa các prefix cơ bản cho API
type RoutePrefix struct {
	Base string // /api
	V1   string // /api/v1
}

// NewRoutePrefix tạo RoutePrefix mặc định
func NewRoutePrefix() RoutePrefix {
	base := "/api"
	return RoutePrefix{
		Base: base,
		V1:   base + "/v1",
	}
}

// Router giữ app để các domain đăng ký route
type Router struct {
	app *fiber.App
}

// NewRouter tạo mới Router
func NewRouter(app *fiber.App) *Router {
	return &Router{app: app}
}

// RegisterRouteWithMiddleware đăng ký route trong group prefix; middleware gắn qua Use() của group
func RegisterRouteWithMiddleware(router fiber.Router, prefix string, method string, path string, middlewares []fiber.Handler, handler fiber.Handler) {
	routeGroup := router.Group(prefix)
	for _, mw := range middlewares {
		routeGroup.Use(mw)
	}

	switch method {
	case "GET":
		routeGroup.Get(path, handler)
	case "POST":
		routeGroup.Post(path, handler)
	case "PUT":
		routeGroup.Put(path, handler)
	case "DELETE":
		routeGroup.Delete(path, handler)
	}
}

// RegisterFunc là hàm đăng ký route của một domain (do domain/router export).
type RegisterFunc func(v1 fiber.Router, r *Router) error

// handleHealth trả về trạng thái server và driver document store đang dùng
func handleHealth(c fiber.Ctx) error {
	driver := ""
	if global.ServerConfig != nil {
		driver = global.ServerConfig.StoreDriver
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"store":  driver,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// SetupRoutes thiết lập health check và route của từng domain. Caller truyền Register của domain để tránh import cycle.
func SetupRoutes(app *fiber.App, regs ...RegisterFunc) error {
	prefix := NewRoutePrefix()
	app.Get("/health", handleHealth)

	v1 := app.Group(prefix.V1)
	v1.Get("/system/health", handleHealth)

	r := NewRouter(app)
	for _, reg := range regs {
		if err := reg(v1, r); err != nil {
			return err
		}
	}
	return nil
}
