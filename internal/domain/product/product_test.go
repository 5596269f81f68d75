package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id string, c Category) Product {
	return Product{
		ID:       id,
		Name:     "Item " + id,
		Price:    decimal.NewFromInt(10),
		Category: c,
		InStock:  true,
		Rating:   4.5,
		Reviews:  3,
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "", want: CategoryAll},
		{in: "All", want: CategoryAll},
		{in: "all", want: CategoryAll},
		{in: "Electronics", want: CategoryElectronics},
		{in: "books", want: CategoryBooks},
		{in: "APPAREL", want: CategoryApparel},
		{in: "Toys", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter(t *testing.T) {
	products := []Product{
		testProduct("1", CategoryElectronics),
		testProduct("2", CategoryBooks),
		testProduct("3", CategoryElectronics),
		testProduct("4", CategoryApparel),
	}

	assert.Len(t, Filter(products, CategoryAll), 4)

	electronics := Filter(products, CategoryElectronics)
	require.Len(t, electronics, 2)
	assert.Equal(t, "1", electronics[0].ID)
	assert.Equal(t, "3", electronics[1].ID)

	assert.Empty(t, Filter(products[:2], CategoryApparel))
}

func TestFeatured(t *testing.T) {
	products := []Product{
		testProduct("1", CategoryBooks),
		testProduct("2", CategoryBooks),
		testProduct("3", CategoryBooks),
	}

	assert.Len(t, Featured(products, 2), 2)
	assert.Len(t, Featured(products, FeaturedCount), 3)
	assert.Empty(t, Featured(products, -1))
}

func TestProduct_Validate(t *testing.T) {
	valid := testProduct("1", CategoryBooks)
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *Product)
	}{
		{name: "empty id", mutate: func(p *Product) { p.ID = "" }},
		{name: "empty name", mutate: func(p *Product) { p.Name = "" }},
		{name: "negative price", mutate: func(p *Product) { p.Price = decimal.NewFromInt(-1) }},
		{name: "rating above 5", mutate: func(p *Product) { p.Rating = 5.1 }},
		{name: "negative reviews", mutate: func(p *Product) { p.Reviews = -1 }},
		{name: "unknown category", mutate: func(p *Product) { p.Category = "Toys" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}
