package models

import "strings"

// Giá trị mặc định khi chuẩn hoá line item
const (
	CustomBucketStandard  = "STANDARD"
	ItemStatusNotStarted  = "NOT_STARTED"
	FinancialStatusVoided = "VOIDED"
)

// Customer thông tin khách hàng đã chuẩn hoá (tên = first + last)
type Customer struct {
	Name  string `json:"name" bson:"name" firestore:"name"`
	Phone string `json:"phone" bson:"phone" firestore:"phone"`
}

// SelectedOption là cặp name/value khách chọn cho line item (Size, Flavour, Add Message, ...)
type SelectedOption struct {
	Name  string `json:"name" bson:"name" firestore:"name"`
	Value string `json:"value" bson:"value" firestore:"value"`
}

// OrderItem là line item của đơn, đơn vị ý định của khách (chưa phải đơn vị sản xuất)
type OrderItem struct {
	ID              string           `json:"id" bson:"id" firestore:"id"`
	OrderID         string           `json:"orderId" bson:"orderId" firestore:"orderId"`
	ProductTitle    string           `json:"productTitle" bson:"productTitle" firestore:"productTitle"`
	VariantSize     string           `json:"variantSize" bson:"variantSize" firestore:"variantSize"`
	Quantity        int              `json:"quantity" bson:"quantity" firestore:"quantity"`
	CustomRaw       []string         `json:"customRaw" bson:"customRaw" firestore:"customRaw"`
	CustomBucket    string           `json:"customBucket" bson:"customBucket" firestore:"customBucket"`
	Message         *string          `json:"message" bson:"message" firestore:"message"`
	Allergens       []string         `json:"allergens" bson:"allergens" firestore:"allergens"`
	Status          string           `json:"status" bson:"status" firestore:"status"`
	PickupAt        string           `json:"pickupAt" bson:"pickupAt" firestore:"pickupAt"`
	SelectedOptions []SelectedOption `json:"selectedOptions" bson:"selectedOptions" firestore:"selectedOptions"`
	IsVoided        bool             `json:"isVoided,omitempty" bson:"isVoided,omitempty" firestore:"isVoided,omitempty"` // void riêng line item (ngoài trạng thái của đơn)
}

// Order là đơn hàng của một ngày, lưu ở days/{day}/orders (Firestore) hoặc collection day_orders (Mongo)
type Order struct {
	DocID           string      `json:"-" bson:"_id" firestore:"-"` // Mongo: "{day}/{id}"
	Day             string      `json:"day" bson:"day" firestore:"day" index:"compound:day_ref_number,single:1"`
	ID              string      `json:"id" bson:"id" firestore:"id"`
	Number          int         `json:"number" bson:"number" firestore:"number"`
	RefNumber       int         `json:"ref_number" bson:"ref_number" firestore:"ref_number" index:"compound:day_ref_number"`
	PickupAt        string      `json:"pickupAt" bson:"pickupAt" firestore:"pickupAt"`
	Customer        Customer    `json:"customer" bson:"customer" firestore:"customer"`
	FinancialStatus string      `json:"financial_status,omitempty" bson:"financial_status,omitempty" firestore:"financial_status,omitempty"`
	TotalPrice      string      `json:"total_price,omitempty" bson:"total_price,omitempty" firestore:"total_price,omitempty"`
	PickupTimeSort  int         `json:"pickup_time_sort" bson:"pickup_time_sort" firestore:"pickup_time_sort"`
	Note            string      `json:"note,omitempty" bson:"note,omitempty" firestore:"note,omitempty"`
	CreatedAt       string      `json:"created_at,omitempty" bson:"created_at,omitempty" firestore:"created_at,omitempty"`
	Items           []OrderItem `json:"items" bson:"items" firestore:"items"`
	Tags            []string    `json:"tags" bson:"tags" firestore:"tags"`
	SyncedAt        int64       `json:"syncedAt,omitempty" bson:"syncedAt,omitempty" firestore:"syncedAt,omitempty"` // Unix ms của lần sync gần nhất
}

// IsVoided cho biết đơn đã bị void (financial_status = VOIDED, không phân biệt hoa thường)
func (o Order) IsVoided() bool {
	return strings.EqualFold(strings.TrimSpace(o.FinancialStatus), FinancialStatusVoided)
}
