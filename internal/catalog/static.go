package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/troli-storefront/internal/domain/product"
)

var _ product.Repository = (*Static)(nil)

// Static is a product.Repository over a fixed list supplied at startup.
// It is never mutated and is safe for concurrent use.
type Static struct {
	products []product.Product
	byID     map[string]int
}

// NewStatic validates products and returns a repository serving them in the
// given order.
func NewStatic(products []product.Product) (*Static, error) {
	s := &Static{
		products: slices.Clone(products),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range s.products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, errors.Errorf("duplicate product id %q", p.ID)
		}
		s.byID[p.ID] = i
	}
	return s, nil
}

// List returns a copy of every product in catalog order.
func (s *Static) List(_ context.Context) ([]product.Product, error) {
	return slices.Clone(s.products), nil
}

// GetByID returns product.ErrNotFound for unknown ids.
func (s *Static) GetByID(_ context.Context, id string) (*product.Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := s.products[i]
	return &p, nil
}

// GetByIDs returns the known products among ids, in request order. Unknown
// ids are skipped.
func (s *Static) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if i, ok := s.byID[id]; ok {
			out = append(out, s.products[i])
		}
	}
	return out, nil
}
