package production

import (
	"testing"

	ordermodels "order_board/internal/api/order/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, title string, qty int, opts ...ordermodels.SelectedOption) ordermodels.OrderItem {
	return ordermodels.OrderItem{ID: id, ProductTitle: title, Quantity: qty, SelectedOptions: opts}
}

func order(id string, number int, items ...ordermodels.OrderItem) ordermodels.Order {
	for i := range items {
		items[i].OrderID = id
	}
	return ordermodels.Order{ID: id, Number: number, Customer: ordermodels.Customer{Name: "Customer " + id}, Items: items}
}

func opt(name, value string) ordermodels.SelectedOption {
	return ordermodels.SelectedOption{Name: name, Value: value}
}

func TestExplode(t *testing.T) {
	for _, qty := range []int{0, 1, 3, 7} {
		units := Explode(order("A", 1001), item("li-1", "Croissant", qty))
		require.Len(t, units, qty)
		for i, u := range units {
			assert.Equal(t, i, u.UnitIndex)
			assert.Equal(t, ordermodels.UnitPending, u.Completed)
			assert.Equal(t, 1, u.Quantity)
			assert.Equal(t, "A", u.OrderID)
			assert.Equal(t, "li-1", u.LineItemID)
			assert.Equal(t, "1001", u.OrderNumber)
			assert.Equal(t, "Customer A", u.CustomerName)
		}
	}

	t.Run("negative quantity yields nothing", func(t *testing.T) {
		assert.Empty(t, Explode(order("A", 1), item("li", "Bread", -2)))
	})

	t.Run("voided order marks every unit", func(t *testing.T) {
		o := order("V", 7, item("li", "Bread", 2))
		o.FinancialStatus = "voided"
		for _, u := range Explode(o, o.Items[0]) {
			assert.True(t, u.IsVoided)
		}
	})
}

func TestRollup(t *testing.T) {
	units := []ordermodels.GroupProgressItem{
		{Completed: 1},
		{Completed: 0},
		{Completed: 1, IsVoided: true},
		{Completed: 0, IsVoided: true},
		{Completed: 1},
	}
	need, done := Rollup(units)
	assert.Equal(t, 3, need)
	assert.Equal(t, 2, done)
	assert.Equal(t, []bool{true, false, true}, ProgressFlags(units))
}

func TestBatchKeyIgnoresOptionOrder(t *testing.T) {
	a := BatchKey("Cake", "8\"", []ordermodels.SelectedOption{opt("Flavour", "Vanilla"), opt("Add Message", "Yes")})
	b := BatchKey("Cake", "8\"", []ordermodels.SelectedOption{opt("Add Message", "Yes"), opt("Flavour", "Vanilla")})
	c := BatchKey("Cake", "8\"", []ordermodels.SelectedOption{opt("Flavour", "Chocolate")})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotContains(t, BatchKey("Sour/dough", "", nil), "/")
	assert.Equal(t, "Sourdough%20Loaf|Large|", BatchKey(" Sourdough Loaf ", "Large", nil))

	// option size đã nằm trong variantSize nên không lặp lại trong chữ ký
	assert.Equal(t, BatchKey("Cake", "6\"", nil), BatchKey("Cake", "6\"", []ordermodels.SelectedOption{opt("Size", "6\"")}))
}

func TestBatchKeyDistinguishesLookalikeParts(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"slash vs underscore", BatchKey("A/B", "", nil), BatchKey("A_B", "", nil)},
		{"separator in title", BatchKey("Pie|Large", "", nil), BatchKey("Pie", "Large", nil)},
		{"separator in size", BatchKey("Pie", "Large|", nil), BatchKey("Pie", "Large", []ordermodels.SelectedOption{opt("", "")})},
		{"comma in option value", BatchKey("Cake", "", []ordermodels.SelectedOption{opt("Flavour", "Vanilla, Topping: Nuts")}),
			BatchKey("Cake", "", []ordermodels.SelectedOption{opt("Flavour", "Vanilla"), opt("Topping", "Nuts")})},
		{"escaped text vs raw", BatchKey("A%2FB", "", nil), BatchKey("A/B", "", nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, tc.a, tc.b)
			assert.NotContains(t, tc.a, "/")
			assert.NotContains(t, tc.a, " ")
		})
	}
}

func TestBuildBatchesChocolateCakeScenario(t *testing.T) {
	orders := []ordermodels.Order{
		order("A", 1, item("a1", "Chocolate Cake (Size)", 2)),
		order("B", 2, item("b1", "Chocolate Cake (Size)", 1)),
	}

	groups := BuildBatches("2025-08-18", orders, nil)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "2025-08-18", g.Day)
	assert.Equal(t, "Chocolate Cake (Size)", g.ProductTitle)
	assert.Equal(t, "", g.VariantSize)
	assert.Equal(t, 3, g.Need)
	assert.Equal(t, 0, g.Done)

	refs := []UnitRef{}
	for _, u := range g.ProgressItems {
		refs = append(refs, RefOf(u))
	}
	assert.Equal(t, []UnitRef{{"A", "a1", 0}, {"A", "a1", 1}, {"B", "b1", 0}}, refs)

	next, updated, err := ToggleUnit(groups, g.Key, UnitRef{"A", "a1", 1})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Done)
	assert.Equal(t, 1, next[0].Done)
	assert.Equal(t, []bool{false, true, false}, next[0].Progress)
	// copy-on-write: input không đổi
	assert.Equal(t, 0, groups[0].Done)
	assert.Equal(t, 0, groups[0].ProgressItems[1].Completed)
}

func TestBuildBatchesVoidedScenario(t *testing.T) {
	voided := order("V", 3, item("v1", "Baguette", 2))
	voided.FinancialStatus = "VOIDED"
	groups := BuildBatches("2025-08-18", []ordermodels.Order{
		order("A", 1, item("a1", "Baguette", 1)),
		voided,
	}, nil)

	require.Len(t, groups, 1)
	g := groups[0]
	assert.Len(t, g.ProgressItems, 3)
	assert.Equal(t, 1, g.Need)
	assert.Equal(t, 0, g.Done)
	assert.True(t, g.ProgressItems[1].IsVoided)
	assert.True(t, g.ProgressItems[2].IsVoided)

	display := DisplayUnits(g)
	require.Len(t, display, 1)
	assert.Equal(t, 0, display[0].Position)

	_, _, err := ToggleUnit(groups, g.Key, UnitRef{"V", "v1", 0})
	assert.ErrorIs(t, err, ErrUnitVoided)
}

func TestBuildBatchesExcludesTips(t *testing.T) {
	o := order("A", 1,
		item("a1", "Extra Tip (Thank you)", 1),
		item("a2", "Tip", 5),
		item("a3", "Lemon Tart", 2),
		item("a4", "tiPsy cake", 1),
	)
	groups := BuildBatches("d", []ordermodels.Order{o}, nil)

	titles := []string{}
	for _, g := range groups {
		titles = append(titles, g.ProductTitle)
	}
	assert.Equal(t, []string{"Lemon Tart", "tiPsy cake"}, titles)

	printable := PrintableItems(o)
	require.Len(t, printable, 2)
	assert.Equal(t, "a3", printable[0].ID)
}

func TestBuildBatchesOrderingAndOptions(t *testing.T) {
	orders := []ordermodels.Order{
		order("A", 1,
			item("a1", "Strawberry Shortcake", 1, opt("Size", "6\""), opt("Add Message", "Yes")),
			item("a2", "Almond Croissant", 2),
		),
		order("B", 2,
			item("b1", "Strawberry Shortcake", 2, opt("Add Message", "Yes"), opt("Size", "6\"")),
		),
	}
	for i := range orders {
		for j := range orders[i].Items {
			for _, o := range orders[i].Items[j].SelectedOptions {
				if IsSizeOption(o.Name) {
					orders[i].Items[j].VariantSize = o.Value
				}
			}
		}
	}

	groups := BuildBatches("d", orders, nil)
	require.Len(t, groups, 2)
	assert.Equal(t, "Almond Croissant", groups[0].ProductTitle)
	assert.Equal(t, "Strawberry Shortcake", groups[1].ProductTitle)
	assert.Equal(t, 3, groups[1].Need)
	assert.Equal(t, []ordermodels.OptionCount{{Option: "Add Message: Yes", Count: 2}}, groups[1].SelectedOptions)
	assert.Equal(t, ordermodels.CustomBucketStandard, groups[1].CustomBucket)
}

func TestBuildBatchesIdempotentAndOrderIndependent(t *testing.T) {
	orders := []ordermodels.Order{
		order("A", 1, item("a1", "Bread", 2), item("a2", "Scone", 1)),
		order("B", 2, item("b1", "Scone", 3)),
	}
	first := BuildBatches("d", orders, nil)
	second := BuildBatches("d", orders, nil)
	assert.Equal(t, first, second)

	reversed := BuildBatches("d", []ordermodels.Order{orders[1], orders[0]}, nil)
	require.Len(t, reversed, len(first))
	for i := range first {
		assert.Equal(t, first[i].Key, reversed[i].Key)
		assert.Equal(t, first[i].Need, reversed[i].Need)
		assert.ElementsMatch(t, first[i].ProgressItems, reversed[i].ProgressItems)
	}
}

func TestBuildBatchesKeepsPriorCompletion(t *testing.T) {
	orders := []ordermodels.Order{order("A", 1, item("a1", "Bread", 2))}
	groups := BuildBatches("d", orders, nil)
	groups, _, err := ToggleUnit(groups, groups[0].Key, UnitRef{"A", "a1", 1})
	require.NoError(t, err)

	// Đơn mới được thêm, unit cũ giữ trạng thái
	orders = append(orders, order("B", 2, item("b1", "Bread", 1)))
	rebuilt := BuildBatches("d", orders, CompletionFromGroups(groups))
	require.Len(t, rebuilt, 1)
	assert.Equal(t, 3, rebuilt[0].Need)
	assert.Equal(t, 1, rebuilt[0].Done)
	assert.Equal(t, 1, rebuilt[0].ProgressItems[1].Completed)
}

func TestToggleRoundTripAndErrors(t *testing.T) {
	groups := BuildBatches("d", []ordermodels.Order{order("A", 1, item("a1", "Bread", 1))}, nil)
	key := groups[0].Key
	ref := UnitRef{"A", "a1", 0}

	once, _, err := ToggleUnit(groups, key, ref)
	require.NoError(t, err)
	twice, _, err := ToggleUnit(once, key, ref)
	require.NoError(t, err)
	assert.Equal(t, groups[0].ProgressItems, twice[0].ProgressItems)
	assert.Equal(t, groups[0].Done, twice[0].Done)

	_, _, err = ToggleUnit(groups, "missing", ref)
	assert.ErrorIs(t, err, ErrBatchNotFound)
	_, _, err = ToggleUnit(groups, key, UnitRef{"A", "a1", 5})
	assert.ErrorIs(t, err, ErrUnitNotFound)
}
