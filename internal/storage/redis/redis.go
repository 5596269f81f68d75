// Package redis stores cart snapshots in Redis.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xenking/troli-storefront/internal/catalog"
	"github.com/xenking/troli-storefront/internal/domain/cart"
)

// DefaultPrefix namespaces cart keys.
const DefaultPrefix = "troli:cart:"

// Options configures a Redis connection.
type Options struct {
	// Addr is either host:port or a redis:// URL.
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	var ro *goredis.Options
	if strings.HasPrefix(opts.Addr, "redis://") || strings.HasPrefix(opts.Addr, "rediss://") {
		parsed, err := goredis.ParseURL(opts.Addr)
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
		ro = parsed
	} else {
		ro = &goredis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}
	}

	client := goredis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store on Redis strings with a sliding TTL:
// every Save extends the snapshot's lifetime.
type CartStore struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCartStore returns a CartStore. A zero ttl keeps snapshots forever.
func NewCartStore(client goredis.UniversalClient, prefix string, ttl time.Duration) *CartStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &CartStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *CartStore) key(k string) string { return s.prefix + k }

// Load returns cart.ErrNoSnapshot when the key is absent or expired.
func (s *CartStore) Load(ctx context.Context, key string) ([]cart.Line, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, cart.ErrNoSnapshot
		}
		return nil, errors.Wrapf(err, "get cart %s", key)
	}

	lines, err := DecodeLines(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode cart %s", key)
	}
	return lines, nil
}

func (s *CartStore) Save(ctx context.Context, key string, lines []cart.Line) error {
	if err := s.client.Set(ctx, s.key(key), EncodeLines(lines), s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set cart %s", key)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Wrapf(err, "delete cart %s", key)
	}
	return nil
}

// EncodeLines serializes cart lines as {"lines":[{"product":{...},"quantity":n}]}.
// Products are embedded so a snapshot restores without a catalog lookup.
func EncodeLines(lines []cart.Line) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Obj(func(e *jx.Encoder) {
		e.Field("lines", func(e *jx.Encoder) {
			e.ArrStart()
			for _, l := range lines {
				e.Obj(func(e *jx.Encoder) {
					e.Field("product", func(e *jx.Encoder) { catalog.EncodeProduct(e, l.Product) })
					e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
				})
			}
			e.ArrEnd()
		})
	})

	out := make([]byte, len(e.Bytes()))
	copy(out, e.Bytes())
	return out
}

// DecodeLines parses a snapshot written by EncodeLines.
func DecodeLines(data []byte) ([]cart.Line, error) {
	var lines []cart.Line
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "lines" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var l cart.Line
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "product":
					l.Product, err = catalog.DecodeProduct(d)
				case "quantity":
					l.Quantity, err = d.Int()
				default:
					return d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			lines = append(lines, l)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}
