package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/troli-storefront/internal/catalog"
	"github.com/xenking/troli-storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, session_id, customer, items, subtotal, tax, shipping, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getOrderByIDSQL = `SELECT id, session_id, customer, items, subtotal, tax, shipping, total, created_at
		FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Customer details and items are stored as
// JSONB documents.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.SessionID, encodeCustomer(o.Customer), encodeItems(o.Items),
		o.Subtotal, o.Tax, o.Shipping, o.Total, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns order.ErrNotFound when no order has the given id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var (
		o        order.Order
		customer []byte
		items    []byte
	)
	err := r.pool.QueryRow(ctx, getOrderByIDSQL, id).Scan(
		&o.ID, &o.SessionID, &customer, &items,
		&o.Subtotal, &o.Tax, &o.Shipping, &o.Total, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	if o.Customer, err = decodeCustomer(customer); err != nil {
		return nil, fmt.Errorf("decoding order %q customer: %w", id, err)
	}
	if o.Items, err = decodeItems(items); err != nil {
		return nil, fmt.Errorf("decoding order %q items: %w", id, err)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}

func encodeCustomer(c order.Customer) []byte {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
		e.Field("address", func(e *jx.Encoder) { e.Str(c.Address) })
		e.Field("city", func(e *jx.Encoder) { e.Str(c.City) })
		e.Field("zipCode", func(e *jx.Encoder) { e.Str(c.ZipCode) })
	})
	return e.Bytes()
}

func decodeCustomer(data []byte) (order.Customer, error) {
	var c order.Customer
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.Name, err = d.Str()
		case "email":
			c.Email, err = d.Str()
		case "address":
			c.Address, err = d.Str()
		case "city":
			c.City, err = d.Str()
		case "zipCode":
			c.ZipCode, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
	return c, err
}

func encodeItems(items []order.Item) []byte {
	e := &jx.Encoder{}
	e.ArrStart()
	for _, it := range items {
		e.Obj(func(e *jx.Encoder) {
			e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
			e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
			e.Field("unitPrice", func(e *jx.Encoder) { catalog.EncodeMoney(e, it.UnitPrice) })
			e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		})
	}
	e.ArrEnd()
	return e.Bytes()
}

func decodeItems(data []byte) ([]order.Item, error) {
	items := []order.Item{}
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var it order.Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "productId":
				it.ProductID, err = d.Str()
			case "name":
				it.Name, err = d.Str()
			case "unitPrice":
				it.UnitPrice, err = catalog.DecodeMoney(d)
			case "quantity":
				it.Quantity, err = d.Int()
			default:
				return d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}
