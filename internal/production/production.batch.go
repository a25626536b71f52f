package production

import (
	"sort"
	"strings"

	ordermodels "order_board/internal/api/order/models"
)

// tipMarker: line item có title chứa chuỗi này (phân biệt hoa thường) là tiền tip, không phải unit sản xuất
const tipMarker = "Tip"

// keySeparator ngăn cách các phần của batch key. Key còn được dùng làm document ID nên không được chứa "/".
const keySeparator = "|"

// keyEscaper mã hoá ký tự đặc biệt trong từng phần của key (kiểu percent-encoding) để key không trùng
// giữa các bộ (title, size, options) khác nhau. Khoảng trắng cũng bị mã hoá để key gõ được trên dòng lệnh.
var keyEscaper = strings.NewReplacer(
	"%", "%25",
	"/", "%2F",
	"|", "%7C",
	",", "%2C",
	" ", "%20",
)

// IsTipItem cho biết line item có phải tip không
func IsTipItem(productTitle string) bool {
	return strings.Contains(productTitle, tipMarker)
}

// PrintableItems trả về line items của đơn, bỏ tip
func PrintableItems(order ordermodels.Order) []ordermodels.OrderItem {
	items := make([]ordermodels.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		if !IsTipItem(item.ProductTitle) {
			items = append(items, item)
		}
	}
	return items
}

// IsSizeOption: option có tên chứa "size" (không phân biệt hoa thường) là kích cỡ
func IsSizeOption(name string) bool {
	return strings.Contains(strings.ToLower(name), "size")
}

// OptionLabel định dạng option thành "Name: Value"
func OptionLabel(opt ordermodels.SelectedOption) string {
	return strings.TrimSpace(opt.Name) + ": " + strings.TrimSpace(opt.Value)
}

// customOptions trả về nhãn các option không phải size đầu tiên (size đã nằm ở variantSize)
func customOptions(options []ordermodels.SelectedOption) []string {
	labels := make([]string, 0, len(options))
	sizeSkipped := false
	for _, opt := range options {
		if !sizeSkipped && IsSizeOption(opt.Name) {
			sizeSkipped = true
			continue
		}
		labels = append(labels, OptionLabel(opt))
	}
	return labels
}

// BatchKey ghép (productTitle, variantSize, options) thành key an toàn cho document ID.
// Hai bộ khác nhau luôn cho hai key khác nhau; thứ tự option không ảnh hưởng.
func BatchKey(productTitle, variantSize string, options []ordermodels.SelectedOption) string {
	labels := customOptions(options)
	for i, label := range labels {
		labels[i] = keyEscaper.Replace(label)
	}
	sort.Strings(labels)

	parts := []string{
		keyEscaper.Replace(strings.TrimSpace(productTitle)),
		keyEscaper.Replace(strings.TrimSpace(variantSize)),
		strings.Join(labels, ","),
	}
	return strings.Join(parts, keySeparator)
}

// BuildBatches gom line items của mọi đơn trong ngày thành các batch.
// Thứ tự unit trong batch là thứ tự chèn (đơn → line item → unitIndex) và không bao giờ bị sắp xếp lại.
// Batch sắp xếp tăng dần theo productTitle, trùng title thì theo key.
// prior giữ lại trạng thái completed của unit đã có (có thể nil).
func BuildBatches(day string, orders []ordermodels.Order, prior Completion) []ordermodels.GroupUnit {
	index := make(map[string]int)
	var groups []ordermodels.GroupUnit
	optionCounts := make(map[string]map[string]int)

	for _, order := range orders {
		for _, item := range order.Items {
			if IsTipItem(item.ProductTitle) {
				continue
			}
			units := Explode(order, item)
			if len(units) == 0 {
				continue
			}

			key := BatchKey(item.ProductTitle, item.VariantSize, item.SelectedOptions)
			pos, ok := index[key]
			if !ok {
				bucket := item.CustomBucket
				if bucket == "" {
					bucket = ordermodels.CustomBucketStandard
				}
				groups = append(groups, ordermodels.GroupUnit{
					Day:          day,
					Key:          key,
					ProductTitle: item.ProductTitle,
					VariantSize:  item.VariantSize,
					CustomBucket: bucket,
				})
				pos = len(groups) - 1
				index[key] = pos
				optionCounts[key] = make(map[string]int)
			}

			for i := range units {
				if completed, ok := prior[RefOf(units[i])]; ok {
					units[i].Completed = completed
				}
			}
			g := &groups[pos]
			g.ProgressItems = append(g.ProgressItems, units...)

			// Rollup option: mỗi line item không void đóng góp 1 lần cho mỗi option của nó
			if !units[0].IsVoided {
				for _, label := range customOptions(item.SelectedOptions) {
					if _, seen := optionCounts[key][label]; !seen {
						g.SelectedOptions = append(g.SelectedOptions, ordermodels.OptionCount{Option: label})
					}
					optionCounts[key][label]++
				}
			}
		}
	}

	for i := range groups {
		g := &groups[i]
		for j := range g.SelectedOptions {
			g.SelectedOptions[j].Count = optionCounts[g.Key][g.SelectedOptions[j].Option]
		}
		if g.SelectedOptions == nil {
			g.SelectedOptions = []ordermodels.OptionCount{}
		}
		Recompute(g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].ProductTitle != groups[j].ProductTitle {
			return groups[i].ProductTitle < groups[j].ProductTitle
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// DisplayUnit là unit hiển thị trên lưới nút / in thẻ, kèm vị trí gốc trong batch
type DisplayUnit struct {
	Position int                           `json:"position"`
	Unit     ordermodels.GroupProgressItem `json:"unit"`
}

// DisplayUnits trả về các unit không void, giữ nguyên vị trí gốc để nhãn "unit N" không lệch
func DisplayUnits(g ordermodels.GroupUnit) []DisplayUnit {
	units := make([]DisplayUnit, 0, len(g.ProgressItems))
	for i, u := range g.ProgressItems {
		if !u.IsVoided {
			units = append(units, DisplayUnit{Position: i, Unit: u})
		}
	}
	return units
}
