package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrder_ItemCount(t *testing.T) {
	o := &Order{Items: []Item{
		{ProductID: "1", UnitPrice: decimal.NewFromInt(10), Quantity: 2},
		{ProductID: "2", UnitPrice: decimal.NewFromInt(5), Quantity: 3},
	}}
	assert.Equal(t, 5, o.ItemCount())
	assert.Zero(t, (&Order{}).ItemCount())
}
