package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"propfeed/internal/domain"
)

// ---- fakes shared by the app tests ----

type fakeRepo struct {
	mu        sync.Mutex
	items     map[string]domain.PropertyFeedRecord
	batches   []domain.ImportBatch
	upsertErr error
	batchErr  error
	gets      int
	lists     int
}

func (f *fakeRepo) UpsertProperties(ctx context.Context, ps []domain.PropertyFeedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.items == nil {
		f.items = map[string]domain.PropertyFeedRecord{}
	}
	for _, p := range ps {
		f.items[p.ID] = p
	}
	return nil
}

func (f *fakeRepo) LogBatch(ctx context.Context, b domain.ImportBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, b)
	return nil
}

func (f *fakeRepo) GetProperty(ctx context.Context, id string) (domain.PropertyFeedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	p, ok := f.items[id]
	if !ok {
		return domain.PropertyFeedRecord{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListProperties(ctx context.Context, q domain.PropertyQuery) (domain.PropertiesPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var out domain.PropertiesPage
	for _, p := range f.items {
		if q.City == "" || p.City == q.City {
			out.Items = append(out.Items, p)
		}
	}
	return out, nil
}

// jsonCache stores values the way the Redis adapter does, as JSON bytes.
type jsonCache struct {
	mu   sync.Mutex
	m    map[string][]byte
	ttls map[string]int
}

func (c *jsonCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *jsonCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m, c.ttls = map[string][]byte{}, map[string]int{}
	}
	c.m[key] = b
	c.ttls[key] = ttlSec
	return nil
}

func (c *jsonCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func (c *jsonCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[key]
	return ok
}

var errUpstream = errors.New("upstream down")

// fakeSource serves table, or errUpstream when fail is set.
type fakeSource struct {
	mu    sync.Mutex
	table domain.RateTable
	fail  bool
	calls int
}

func (f *fakeSource) Latest(ctx context.Context, base string) (domain.RateTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.fail {
		return nil, errUpstream
	}
	return f.table.Clone(), nil
}

func (f *fakeSource) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
