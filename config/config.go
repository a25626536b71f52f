package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreDriverMongo     = "mongo"
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng
type Configuration struct {
	Address     string `env:"ADDRESS" envDefault:":8080"`                    // Địa chỉ server
	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`               // mongo | firestore | memory
	PublicURL   string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"` // URL board client dùng để gọi server

	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI"`                  // URL kết nối MongoDB (bắt buộc khi STORE_DRIVER=mongo)
	MongoDB_DBName        string `env:"MONGODB_DBNAME" envDefault:"order_board"` // Tên database

	// Firebase Configuration (bắt buộc khi STORE_DRIVER=firestore)
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`

	// Commerce backend
	CommerceAPIBase        string `env:"COMMERCE_API_BASE,required"`               // Base URL của API trung gian (orders, fetchAllProducts)
	CommerceTimeoutSeconds int    `env:"COMMERCE_TIMEOUT_SECONDS" envDefault:"30"` // Timeout cho mỗi request

	// Nghiệp vụ
	PrintedTagPrefix       string `env:"PRINTED_TAG_PREFIX" envDefault:"Printed-"`         // excludeTag = prefix + ngày
	OrderLookbackDays      int    `env:"ORDER_LOOKBACK_DAYS" envDefault:"30"`              // Số ngày lùi lại khi fetch orders
	BusinessTimezone       string `env:"BUSINESS_TIMEZONE" envDefault:"America/Vancouver"` // Múi giờ cửa hàng
	ProductCacheTTLMinutes int    `env:"PRODUCT_CACHE_TTL_MINUTES" envDefault:"60"`        // Sau thời gian này catalog bị coi là stale
	ToggleDedupeTTLHours   int    `env:"TOGGLE_DEDUPE_TTL_HOURS" envDefault:"24"`          // Thời gian giữ requestId để chống double-flip

	// Worker re-sync
	ResyncEnabled           bool `env:"RESYNC_ENABLED" envDefault:"true"`
	ResyncIntervalSeconds   int  `env:"RESYNC_INTERVAL_SECONDS" envDefault:"300"`
	ResyncActiveWindowHours int  `env:"RESYNC_ACTIVE_WINDOW_HOURS" envDefault:"12"`

	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"300"`           // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting
}

// Validate kiểm tra các cấu hình phụ thuộc lẫn nhau mà env tag không diễn tả được
func (c *Configuration) Validate() error {
	switch c.StoreDriver {
	case StoreDriverMongo:
		if c.MongoDB_ConnectionURI == "" {
			return fmt.Errorf("MONGODB_CONNECTION_URI is required when STORE_DRIVER=%s", c.StoreDriver)
		}
	case StoreDriverFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when STORE_DRIVER=%s", c.StoreDriver)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.OrderLookbackDays < 0 {
		return fmt.Errorf("ORDER_LOOKBACK_DAYS must be >= 0")
	}
	return nil
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Cannot resolve working directory: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env, đi dần lên thư mục cha
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", env))
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig đọc cấu hình từ file env (nếu tìm thấy) rồi từ biến môi trường.
// Không có file env vẫn chạy được (container inject env trực tiếp).
func NewConfig() *Configuration {
	if envPath := getEnvPath(); envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Cannot load env file %s: %v\n", envPath, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Printf("Failed to parse config: %+v\n", err)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		return nil
	}

	return &cfg
}
