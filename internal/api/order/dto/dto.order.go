package dto

import ordermodels "order_board/internal/api/order/models"

// ToggleUnitInput body của POST /toggleGroupUnit.
// RequestID do client sinh (UUID) và giữ nguyên khi retry.
type ToggleUnitInput struct {
	Day        string `json:"day" validate:"required,day"`
	GroupKey   string `json:"groupKey" validate:"required,no_slash"`
	OrderID    string `json:"orderId" validate:"required"`
	LineItemID string `json:"lineItemId" validate:"required"`
	UnitIndex  *int   `json:"unitIndex" validate:"required,min=0"`
	RequestID  string `json:"requestId" validate:"omitempty,max=128,no_slash"`
}

// SyncResult kết quả của POST /days/:day/sync
type SyncResult struct {
	Day      string `json:"day"`
	Orders   int    `json:"orders"`
	Groups   int    `json:"groups"`
	Units    int    `json:"units"` // số unit không void cần làm
	SyncedAt int64  `json:"syncedAt"`
}

// BoardView trả về cả batch và đơn của ngày
type BoardView struct {
	Day    string                  `json:"day"`
	Groups []ordermodels.GroupUnit `json:"groups"`
	Orders []ordermodels.Order     `json:"orders"`
}

// PickupRow một dòng của danh sách nhận hàng
type PickupRow struct {
	OrderID       string   `json:"orderId"`
	RefNumber     int      `json:"refNumber"`
	Number        int      `json:"number"`
	CustomerName  string   `json:"customerName"`
	PhoneNumber   string   `json:"phoneNumber"`
	PickupTime    string   `json:"pickupTime"`
	Items         []string `json:"items"`
	PaymentStatus string   `json:"paymentStatus"`
	TotalPrice    string   `json:"totalPrice"`
	Notes         string   `json:"notes"`
}

// PickupSummary danh sách nhận hàng kèm tổng tiền các đơn không void
type PickupSummary struct {
	Day   string      `json:"day"`
	Rows  []PickupRow `json:"rows"`
	Total string      `json:"total"`
}

// MessageTicket phiếu ghi lời nhắn cho một line item (in trên bánh)
type MessageTicket struct {
	OrderID      string `json:"orderId"`
	LineItemID   string `json:"lineItemId"`
	RefNumber    int    `json:"refNumber"`
	Number       int    `json:"number"`
	CustomerName string `json:"customerName"`
	PhoneNumber  string `json:"phoneNumber"`
	PickupLabel  string `json:"pickupLabel"` // "tags[0] | tags[1]"
	ProductTitle string `json:"productTitle"`
	VariantSize  string `json:"variantSize"`
	Quantity     int    `json:"quantity"`
	Message      string `json:"message"`
}
