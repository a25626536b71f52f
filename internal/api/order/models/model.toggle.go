package models

import "time"

// ToggleCommand là lệnh "đảo trạng thái" một unit.
// RequestID do client sinh (UUID) để server chống double-flip khi client retry.
type ToggleCommand struct {
	Day        string
	GroupKey   string
	OrderID    string
	LineItemID string
	UnitIndex  int
	RequestID  string
}

// ToggleResult là trạng thái unit sau khi toggle (hoặc kết quả đã ghi nhận nếu Duplicate)
type ToggleResult struct {
	RequestID  string `json:"requestId"`
	Day        string `json:"day"`
	GroupKey   string `json:"groupKey"`
	OrderID    string `json:"orderId"`
	LineItemID string `json:"lineItemId"`
	UnitIndex  int    `json:"unitIndex"`
	Completed  int    `json:"completed"`
	Need       int    `json:"need"`
	Done       int    `json:"done"`
	Duplicate  bool   `json:"duplicate"`
}

// ToggleRequestRecord lưu kết quả của một requestId đã xử lý (collection toggle_requests)
type ToggleRequestRecord struct {
	RequestID  string    `json:"requestId" bson:"_id" firestore:"requestId"`
	Day        string    `json:"day" bson:"day" firestore:"day" index:"single:1"`
	GroupKey   string    `json:"groupKey" bson:"groupKey" firestore:"groupKey"`
	OrderID    string    `json:"orderId" bson:"orderId" firestore:"orderId"`
	LineItemID string    `json:"lineItemId" bson:"lineItemId" firestore:"lineItemId"`
	UnitIndex  int       `json:"unitIndex" bson:"unitIndex" firestore:"unitIndex"`
	Completed  int       `json:"completed" bson:"completed" firestore:"completed"`
	Need       int       `json:"need" bson:"need" firestore:"need"`
	Done       int       `json:"done" bson:"done" firestore:"done"`
	Pending    bool      `json:"-" bson:"pending" firestore:"pending"` // đã nhận nhưng chưa áp dụng xong (driver Mongo)
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
}

// Result chuyển record về ToggleResult, đánh dấu là bản ghi đã có
func (r ToggleRequestRecord) Result() ToggleResult {
	return ToggleResult{
		RequestID:  r.RequestID,
		Day:        r.Day,
		GroupKey:   r.GroupKey,
		OrderID:    r.OrderID,
		LineItemID: r.LineItemID,
		UnitIndex:  r.UnitIndex,
		Completed:  r.Completed,
		Need:       r.Need,
		Done:       r.Done,
		Duplicate:  true,
	}
}

// NewToggleRequestRecord tạo record từ kết quả vừa áp dụng
func NewToggleRequestRecord(res ToggleResult, now time.Time) ToggleRequestRecord {
	return ToggleRequestRecord{
		RequestID:  res.RequestID,
		Day:        res.Day,
		GroupKey:   res.GroupKey,
		OrderID:    res.OrderID,
		LineItemID: res.LineItemID,
		UnitIndex:  res.UnitIndex,
		Completed:  res.Completed,
		Need:       res.Need,
		Done:       res.Done,
		CreatedAt:  now,
	}
}
