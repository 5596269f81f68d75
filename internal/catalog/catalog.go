// Package catalog loads the product catalog and serves it as a read-only
// product.Repository.
package catalog

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"

	"github.com/xenking/troli-storefront/db"
	"github.com/xenking/troli-storefront/internal/domain/product"
)

const readBufSize = 4096

// Decode parses a JSON array of products. Every product is validated and
// ids must be unique.
func Decode(data []byte) ([]product.Product, error) {
	return decode(jx.DecodeBytes(data))
}

// DecodeReader is like Decode but streams from r.
func DecodeReader(r io.Reader) ([]product.Product, error) {
	return decode(jx.Decode(r, readBufSize))
}

func decode(d *jx.Decoder) ([]product.Product, error) {
	var products []product.Product
	seen := make(map[string]struct{})
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := DecodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "product #%d", len(products))
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return errors.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return products, nil
}

// LoadFile reads a catalog from path. Files ending in .gz are
// gzip-compressed.
func LoadFile(path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	products, err := DecodeReader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return products, nil
}

// Default returns the built-in catalog.
func Default() (*Static, error) {
	products, err := DecodeReader(bytes.NewReader(db.Products))
	if err != nil {
		return nil, errors.Wrap(err, "default catalog")
	}
	return NewStatic(products)
}
