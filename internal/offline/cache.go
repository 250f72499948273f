// Package offline is the caching intermediary between the process and the
// network: a response cache plus named fetch strategies applied by an
// http.RoundTripper.
package offline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"resephub/pkg/logging"
)

// Cache stores responses keyed by request URL.
type Cache interface {
	// Match returns the stored response for req, or nil when there is none.
	Match(req *http.Request) (*http.Response, error)
	// Put stores resp for req. It consumes resp.Body and replaces it with an
	// identical unread body, so the caller can still return resp.
	Put(req *http.Request, resp *http.Response) error
}

type entry struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// BadgerCache is a Cache in one badger database. Name separates caches
// sharing a database.
type BadgerCache struct {
	db   *badger.DB
	name string
}

// OpenBadger opens (or creates) the cache directory. An empty dir keeps
// the cache in memory.
func OpenBadger(dir, name string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return NewBadgerCache(db, name), nil
}

func NewBadgerCache(db *badger.DB, name string) *BadgerCache {
	return &BadgerCache{db: db, name: name}
}

func (c *BadgerCache) key(req *http.Request) []byte {
	return []byte(c.name + ":" + req.URL.String())
}

func (c *BadgerCache) Match(req *http.Request) (*http.Response, error) {
	var e entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(req))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", req.URL, err)
	}

	h := e.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("X-Cache", "HIT")
	return &http.Response{
		Status:        strconv.Itoa(e.Status) + " " + http.StatusText(e.Status),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}, nil
}

func (c *BadgerCache) Put(req *http.Request, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("read body %s: %w", req.URL, err)
	}

	b, err := json.Marshal(entry{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", req.URL, err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(req), b)
	})
}

// Close closes the underlying database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}

// badgerLogger routes badger's own logging to zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...any) {
	logging.Error().Str("component", "badger").Msgf(f, v...)
}

func (badgerLogger) Warningf(f string, v ...any) {
	logging.Warn().Str("component", "badger").Msgf(f, v...)
}

func (badgerLogger) Infof(f string, v ...any) {
	logging.Debug().Str("component", "badger").Msgf(f, v...)
}

func (badgerLogger) Debugf(f string, v ...any) {}
