package global

import (
	"order_board/config"
	"order_board/internal/commerce"
	"order_board/internal/docstore"
	"order_board/internal/registry"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	DayOrders      string // Đơn hàng theo ngày (_id = "{day}/{orderId}")
	DayGroups      string // Batch theo ngày (_id = "{day}/{groupKey}")
	ToggleRequests string // requestId đã xử lý, hết hạn theo TTL index
}

// Các biến toàn cục
var Validate *validator.Validate       // Biến để xác thực dữ liệu
var ServerConfig *config.Configuration // Cấu hình của server
var MongoDB_Session *mongo.Client      // Phiên kết nối tới MongoDB (STORE_DRIVER=mongo)
var FirebaseApp *firebase.App          // Firebase app (STORE_DRIVER=firestore)
var FirestoreClient *firestore.Client  // Firestore client (STORE_DRIVER=firestore)
var MongoDB_ColNames = MongoDB_CollectionName{
	DayOrders:      "day_orders",
	DayGroups:      "day_groups",
	ToggleRequests: "toggle_requests",
}

var DocStore docstore.Store         // Document store theo STORE_DRIVER
var CommerceClient *commerce.Client // Client gọi commerce backend

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
