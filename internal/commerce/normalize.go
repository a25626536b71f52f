package commerce

import (
	"regexp"
	"strconv"
	"strings"

	ordermodels "order_board/internal/api/order/models"

	"github.com/shopspring/decimal"
)

// pickupTimePattern khớp giờ dạng "3:30 PM" trong tag khung giờ nhận hàng ("3:30 PM - 5:45 PM")
var pickupTimePattern = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*([AP]M)`)

// ParseOrderNumber bỏ '#' khỏi tên đơn ("#1001") và parse số; không parse được thì 0
func ParseOrderNumber(name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(name, "#", "")))
	if err != nil {
		return 0
	}
	return n
}

// PickupTime lấy giờ nhận hàng đầu tiên trong tags[1].
// Trả về nhãn ("3:30 PM") và số phút tính từ nửa đêm; ok = false nếu không có.
func PickupTime(tags []string) (label string, minutes int, ok bool) {
	if len(tags) < 2 || tags[1] == "" {
		return "", 0, false
	}
	m := pickupTimePattern.FindStringSubmatch(tags[1])
	if m == nil {
		return "", 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return "", 0, false
	}
	hour %= 12
	if strings.EqualFold(m[3], "PM") {
		hour += 12
	}
	return m[0], hour*60 + minute, true
}

// NormalizeTotalPrice chuẩn hoá tổng tiền về 2 chữ số thập phân; giá trị không hợp lệ giữ nguyên
func NormalizeTotalPrice(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.StringFixed(2)
}

func customerName(c *RawCustomer) string {
	if c == nil {
		return ""
	}
	first := firstNonEmpty(c.FirstName, c.FirstNameCamel)
	last := firstNonEmpty(c.LastName, c.LastNameCamel)
	return strings.TrimSpace(first + " " + last)
}

func normalizeItem(orderID, pickupAt string, li RawLineItem) ordermodels.OrderItem {
	item := ordermodels.OrderItem{
		ID:              li.ID.String(),
		OrderID:         orderID,
		ProductTitle:    li.Name,
		Quantity:        li.Quantity,
		CustomRaw:       []string{},
		CustomBucket:    ordermodels.CustomBucketStandard,
		Allergens:       []string{},
		Status:          ordermodels.ItemStatusNotStarted,
		PickupAt:        pickupAt,
		SelectedOptions: []ordermodels.SelectedOption{},
	}

	for _, opt := range li.SelectedOptions {
		item.SelectedOptions = append(item.SelectedOptions, ordermodels.SelectedOption{Name: opt.Name, Value: opt.Value})
		if item.VariantSize == "" && strings.Contains(strings.ToLower(opt.Name), "size") {
			item.VariantSize = opt.Value
		}
	}

	messageSeen := false
	for _, p := range li.Properties {
		item.CustomRaw = append(item.CustomRaw, p.Value.String())
		if messageSeen || !strings.Contains(strings.ToLower(p.Name), "message") {
			continue
		}
		messageSeen = true
		if p.Value != "" {
			msg := p.Value.String()
			item.Message = &msg
		}
	}
	return item
}

// positionalItemID id thay thế cho line item thiếu id, ổn định giữa các lần sync khi thứ tự line item không đổi
func positionalItemID(orderID string, index int) string {
	return orderID + "-line-" + strconv.Itoa(index)
}

// NormalizeOrder chuyển đơn thô sang Order. RefNumber chỉ có khi backend cung cấp.
func NormalizeOrder(raw RawOrder) ordermodels.Order {
	createdAt := firstNonEmpty(raw.CreatedAt, raw.CreatedAtCamel)
	pickupAt := firstNonEmpty(raw.PickupDate, createdAt)
	id := raw.ID.String()

	tags := raw.Tags
	if tags == nil {
		tags = []string{}
	}
	_, sortMinutes, _ := PickupTime(tags)

	lineItems := raw.LineItems
	if len(lineItems) == 0 {
		lineItems = raw.LineItemsCamel
	}
	items := make([]ordermodels.OrderItem, 0, len(lineItems))
	seen := make(map[string]struct{}, len(lineItems))
	for i, li := range lineItems {
		item := normalizeItem(id, pickupAt, li)
		// Thiếu id hoặc trùng id trong cùng đơn: dùng id theo vị trí để unit không bị trùng định danh
		if _, dup := seen[item.ID]; item.ID == "" || dup {
			item.ID = positionalItemID(id, i)
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}

	refNumber := raw.RefNumber
	if refNumber == 0 {
		refNumber = raw.RefNumberCamel
	}

	return ordermodels.Order{
		ID:        id,
		Number:    ParseOrderNumber(raw.Name),
		RefNumber: refNumber,
		PickupAt:  pickupAt,
		Customer: ordermodels.Customer{
			Name:  customerName(raw.Customer),
			Phone: firstNonEmpty(raw.DeliveryPhone, raw.DeliveryPhoneCamel),
		},
		FinancialStatus: firstNonEmpty(raw.FinancialStatus, raw.FinancialStatusCamel),
		TotalPrice:      NormalizeTotalPrice(firstNonEmpty(raw.TotalPrice.String(), raw.TotalPriceCamel.String())),
		PickupTimeSort:  sortMinutes,
		Note:            raw.Note,
		CreatedAt:       createdAt,
		Items:           items,
		Tags:            tags,
	}
}

// NormalizeOrders chuẩn hoá danh sách đơn, giữ nguyên thứ tự backend trả về
func NormalizeOrders(raw []RawOrder) []ordermodels.Order {
	orders := make([]ordermodels.Order, 0, len(raw))
	for _, r := range raw {
		orders = append(orders, NormalizeOrder(r))
	}
	return orders
}
