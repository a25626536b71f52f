package commerce

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString nhận cả chuỗi, số và null (id và giá trị property có thể là số)
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// bool hoặc object: giữ nguyên dạng JSON
		*f = FlexString(strings.Trim(string(data), `"`))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// firstNonEmpty trả về giá trị khác rỗng đầu tiên
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// RawProperty thuộc tính khách nhập cho line item (lời nhắn, số nến, ...)
type RawProperty struct {
	Name  string     `json:"name"`
	Value FlexString `json:"value"`
}

// RawOption lựa chọn biến thể của line item
type RawOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawLineItem line item thô
type RawLineItem struct {
	ID              FlexString    `json:"id"`
	Name            string        `json:"name"`
	Quantity        int           `json:"quantity"`
	Properties      []RawProperty `json:"properties"`
	SelectedOptions []RawOption   `json:"selectedOptions"`
}

// RawCustomer khách hàng thô
type RawCustomer struct {
	FirstName      string `json:"first_name"`
	FirstNameCamel string `json:"firstName"`
	LastName       string `json:"last_name"`
	LastNameCamel  string `json:"lastName"`
}

// RawOrder là đơn hàng như commerce backend trả về; các field có thể ở dạng snake_case hoặc camelCase
type RawOrder struct {
	ID                   FlexString    `json:"id"`
	Note                 string        `json:"note"`
	Name                 string        `json:"name"`
	CreatedAt            string        `json:"created_at"`
	CreatedAtCamel       string        `json:"createdAt"`
	Customer             *RawCustomer  `json:"customer"`
	DeliveryPhone        string        `json:"delivery_phone"`
	DeliveryPhoneCamel   string        `json:"deliveryPhone"`
	Tags                 []string      `json:"tags"`
	LineItems            []RawLineItem `json:"line_items"`
	LineItemsCamel       []RawLineItem `json:"lineItems"`
	FinancialStatus      string        `json:"financial_status"`
	FinancialStatusCamel string        `json:"financialStatus"`
	PickupTime           string        `json:"pickup_time"`
	PickupDate           string        `json:"pickup_date"`
	TotalPrice           FlexString    `json:"total_price"`
	TotalPriceCamel      FlexString    `json:"totalPrice"`
	RefNumber            int           `json:"ref_number"`
	RefNumberCamel       int           `json:"refNumber"`
}

type ordersResponse struct {
	Orders []RawOrder `json:"orders"`
}
