package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/troli-storefront/internal/domain/product"
)

// MaxQuantity caps the units of a single product in one cart. Engine
// operations clamp to it, so quantities and totals never overflow.
const MaxQuantity = 999

// Line is one product's aggregated quantity within the cart, between 1 and
// MaxQuantity.
type Line struct {
	Product  product.Product
	Quantity int
}

// Subtotal returns price × quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is an immutable snapshot of the cart. Lines keep insertion order and
// the derived values always equal ComputeTotals over the lines.
type State struct {
	lines     []Line
	total     decimal.Decimal
	itemCount int
}

// emptyState is shared by every engine that has no lines.
var emptyState = &State{total: decimal.Zero}

func newState(lines []Line) *State {
	if len(lines) == 0 {
		return emptyState
	}
	total, count := ComputeTotals(lines)
	return &State{lines: lines, total: total, itemCount: count}
}

// Lines returns a copy of the cart lines in insertion order.
func (s State) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Line returns the line for productID, if present.
func (s State) Line(productID string) (Line, bool) {
	if i := indexOf(s.lines, productID); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

// Total is the undiscounted sum of price × quantity, excluding tax.
func (s State) Total() decimal.Decimal { return s.total }

// ItemCount is the sum of quantities, not the number of distinct lines.
func (s State) ItemCount() int { return s.itemCount }

// Len is the number of distinct lines.
func (s State) Len() int { return len(s.lines) }

// IsEmpty reports whether the cart has no lines. Checkout is gated on it.
func (s State) IsEmpty() bool { return len(s.lines) == 0 }

// Summary returns the presentation pricing derived from Total.
func (s State) Summary() Summary { return Summarize(s.total) }

// ComputeTotals derives the cart total and item count from lines.
func ComputeTotals(lines []Line) (total decimal.Decimal, itemCount int) {
	total = decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
		itemCount += l.Quantity
	}
	return total, itemCount
}

func indexOf(lines []Line, productID string) int {
	for i, l := range lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// addQuantity returns q+n clamped to MaxQuantity. Both must be positive.
func addQuantity(q, n int) int {
	if n >= MaxQuantity-q {
		return MaxQuantity
	}
	return q + n
}

// normalize merges duplicate product lines, drops non-positive quantities
// and clamps to MaxQuantity, keeping the position of the first occurrence.
func normalize(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := indexOf(out, l.Product.ID); i >= 0 {
			out[i].Quantity = addQuantity(out[i].Quantity, l.Quantity)
			continue
		}
		l.Quantity = min(l.Quantity, MaxQuantity)
		out = append(out, l)
	}
	return out
}
