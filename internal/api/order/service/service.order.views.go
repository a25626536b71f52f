package ordersvc

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	orderdto "order_board/internal/api/order/dto"
	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/commerce"
	"order_board/internal/production"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var (
	countryCodePattern = regexp.MustCompile(`^\+1\s?`)
	nonDigitPattern    = regexp.MustCompile(`\D`)
)

// Groups batch của ngày theo productTitle
func (s *OrderService) Groups(ctx context.Context, day string) ([]ordermodels.GroupUnit, error) {
	return s.store.Groups(ctx, day)
}

// Orders đơn của ngày theo ref_number
func (s *OrderService) Orders(ctx context.Context, day string) ([]ordermodels.Order, error) {
	return s.store.Orders(ctx, day)
}

// Board đọc song song batch và đơn của ngày
func (s *OrderService) Board(ctx context.Context, day string) (*orderdto.BoardView, error) {
	view := &orderdto.BoardView{Day: day}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		groups, err := s.store.Groups(gctx, day)
		view.Groups = groups
		return err
	})
	g.Go(func() error {
		orders, err := s.store.Orders(gctx, day)
		view.Orders = orders
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// FormatPhoneNumber định dạng số Bắc Mỹ thành (XXX) XXX-XXXX; số khác giữ nguyên
func FormatPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}
	cleaned := nonDigitPattern.ReplaceAllString(countryCodePattern.ReplaceAllString(phone, ""), "")
	if len(cleaned) == 10 {
		return fmt.Sprintf("(%s) %s-%s", cleaned[:3], cleaned[3:6], cleaned[6:])
	}
	return phone
}

// ItemLine mô tả line item trên danh sách nhận hàng: "Title (Size) ×Q - message"
func ItemLine(item ordermodels.OrderItem) string {
	var b strings.Builder
	b.WriteString(item.ProductTitle)
	if item.VariantSize != "" {
		fmt.Fprintf(&b, " (%s)", item.VariantSize)
	}
	fmt.Fprintf(&b, " ×%d", item.Quantity)
	if item.Message != nil && *item.Message != "" {
		fmt.Fprintf(&b, " - %s", *item.Message)
	}
	return b.String()
}

// Pickups danh sách nhận hàng theo ref_number, kèm tổng tiền các đơn không void
func (s *OrderService) Pickups(ctx context.Context, day string) (*orderdto.PickupSummary, error) {
	orders, err := s.store.Orders(ctx, day)
	if err != nil {
		return nil, err
	}

	summary := &orderdto.PickupSummary{Day: day, Rows: make([]orderdto.PickupRow, 0, len(orders))}
	total := decimal.Zero
	for _, o := range orders {
		label, _, _ := commerce.PickupTime(o.Tags)
		items := make([]string, 0, len(o.Items))
		for _, item := range production.PrintableItems(o) {
			items = append(items, ItemLine(item))
		}
		summary.Rows = append(summary.Rows, orderdto.PickupRow{
			OrderID:       o.ID,
			RefNumber:     o.RefNumber,
			Number:        o.Number,
			CustomerName:  o.Customer.Name,
			PhoneNumber:   FormatPhoneNumber(o.Customer.Phone),
			PickupTime:    label,
			Items:         items,
			PaymentStatus: o.FinancialStatus,
			TotalPrice:    o.TotalPrice,
			Notes:         o.Note,
		})
		if o.IsVoided() || o.TotalPrice == "" {
			continue
		}
		if price, err := decimal.NewFromString(o.TotalPrice); err == nil {
			total = total.Add(price)
		}
	}
	summary.Total = total.StringFixed(2)
	return summary, nil
}

// MessageTickets một phiếu cho mỗi line item (không phải tip) có lời nhắn, theo ref_number
func (s *OrderService) MessageTickets(ctx context.Context, day string) ([]orderdto.MessageTicket, error) {
	orders, err := s.store.Orders(ctx, day)
	if err != nil {
		return nil, err
	}

	tickets := []orderdto.MessageTicket{}
	for _, o := range orders {
		pickupLabel := strings.Join(firstTags(o.Tags, 2), " | ")
		for _, item := range production.PrintableItems(o) {
			if item.Message == nil {
				continue
			}
			msg := strings.TrimSpace(*item.Message)
			if msg == "" {
				continue
			}
			tickets = append(tickets, orderdto.MessageTicket{
				OrderID:      o.ID,
				LineItemID:   item.ID,
				RefNumber:    o.RefNumber,
				Number:       o.Number,
				CustomerName: o.Customer.Name,
				PhoneNumber:  o.Customer.Phone,
				PickupLabel:  pickupLabel,
				ProductTitle: item.ProductTitle,
				VariantSize:  item.VariantSize,
				Quantity:     item.Quantity,
				Message:      msg,
			})
		}
	}
	return tickets, nil
}

func firstTags(tags []string, n int) []string {
	if len(tags) < n {
		return tags
	}
	return tags[:n]
}
