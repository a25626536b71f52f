package models

// GroupProgressItem là một Production Unit: một slot trong quantity của một line item.
// Mỗi (orderId, lineItemId, unitIndex) là duy nhất.
type GroupProgressItem struct {
	OrderID      string `json:"orderId" bson:"orderId" firestore:"orderId"`
	LineItemID   string `json:"lineItemId" bson:"lineItemId" firestore:"lineItemId"`
	OrderNumber  string `json:"orderNumber" bson:"orderNumber" firestore:"orderNumber"`
	CustomerName string `json:"customerName" bson:"customerName" firestore:"customerName"`
	Quantity     int    `json:"quantity" bson:"quantity" firestore:"quantity"`    // luôn = 1
	Completed    int    `json:"completed" bson:"completed" firestore:"completed"` // 0 = PENDING, 1 = DONE
	IsVoided     bool   `json:"isVoided" bson:"isVoided" firestore:"isVoided"`
	PickupAt     string `json:"pickupAt" bson:"pickupAt" firestore:"pickupAt"`
	UnitIndex    int    `json:"unitIndex" bson:"unitIndex" firestore:"unitIndex"`
}

// Trạng thái của một Production Unit
const (
	UnitPending = 0
	UnitDone    = 1
)

// IsDone true khi unit đã hoàn thành
func (p GroupProgressItem) IsDone() bool {
	return p.Completed == UnitDone
}

// OptionCount đếm số lần một lựa chọn ("Name: Value") xuất hiện trong batch
type OptionCount struct {
	Option string `json:"option" bson:"option" firestore:"option"`
	Count  int    `json:"count" bson:"count" firestore:"count"`
}

// GroupUnit là một Batch: gom mọi production unit cùng (productTitle, variantSize, options) của một ngày.
// Need/Done/Progress là giá trị dẫn xuất, luôn tính lại sau mỗi thay đổi.
type GroupUnit struct {
	DocID           string              `json:"-" bson:"_id" firestore:"-"` // Mongo: "{day}/{key}"
	Day             string              `json:"day" bson:"day" firestore:"day" index:"compound:day_product_title,single:1"`
	Key             string              `json:"key" bson:"key" firestore:"key"`
	ProductTitle    string              `json:"productTitle" bson:"productTitle" firestore:"productTitle" index:"compound:day_product_title"`
	VariantSize     string              `json:"variantSize" bson:"variantSize" firestore:"variantSize"`
	CustomBucket    string              `json:"customBucket" bson:"customBucket" firestore:"customBucket"`
	Need            int                 `json:"need" bson:"need" firestore:"need"`
	Done            int                 `json:"done" bson:"done" firestore:"done"`
	Progress        []bool              `json:"progress" bson:"progress" firestore:"progress"`
	ProgressItems   []GroupProgressItem `json:"progressItems" bson:"progressItems" firestore:"progressItems"`
	SelectedOptions []OptionCount       `json:"selectedOptions" bson:"selectedOptions" firestore:"selectedOptions"`
	Version         int64               `json:"version" bson:"version" firestore:"version"` // optimistic concurrency cho driver Mongo
}
