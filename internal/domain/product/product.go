package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrOutOfStock is returned by callers that refuse to add a product whose
	// stock flag is false. The cart engine itself never returns it.
	ErrOutOfStock = errors.New("product is out of stock")
	// ErrUnknownCategory is returned by ParseCategory for unsupported values.
	ErrUnknownCategory = errors.New("unknown category")
)

// Category enumerates the catalog sections.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryBooks       Category = "Books"
	CategoryApparel     Category = "Apparel"

	// CategoryAll is the filter value that matches every product.
	CategoryAll Category = "All"
)

// Categories lists the concrete categories in display order.
var Categories = []Category{CategoryElectronics, CategoryBooks, CategoryApparel}

// ParseCategory maps a case-insensitive name to a Category. The empty string
// and "all" both yield CategoryAll.
func ParseCategory(s string) (Category, error) {
	if s == "" || strings.EqualFold(s, string(CategoryAll)) {
		return CategoryAll, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownCategory, "%q", s)
}

// Valid reports whether c is one of the concrete categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a catalog item available for purchase. Products are
// supplied by the catalog and treated as immutable values.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Description string
	Image       string
	Category    Category
	InStock     bool
	Rating      float64
	Reviews     int
}

// Validate checks the catalog invariants of a single product record.
func (p Product) Validate() error {
	switch {
	case p.ID == "":
		return errors.New("product id is empty")
	case p.Name == "":
		return errors.Errorf("product %s: name is empty", p.ID)
	case p.Price.IsNegative():
		return errors.Errorf("product %s: negative price %s", p.ID, p.Price)
	case p.Rating < 0 || p.Rating > 5:
		return errors.Errorf("product %s: rating %v out of range [0, 5]", p.ID, p.Rating)
	case p.Reviews < 0:
		return errors.Errorf("product %s: negative review count %d", p.ID, p.Reviews)
	case !p.Category.Valid():
		return errors.Errorf("product %s: %v %q", p.ID, ErrUnknownCategory, p.Category)
	}
	return nil
}

// Repository defines read operations for the product catalog.
type Repository interface {
	// List returns every product in catalog order.
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
