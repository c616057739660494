package db

import (
	"context"
	"sync"
	"time"

	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/normalize"
)

const DefaultSlugTTL = 5 * time.Minute

// SlugIndex maps normalized series names onto catalog rows. The map is
// rebuilt from the database once it is older than the TTL.
type SlugIndex struct {
	db  *DB
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	builtAt time.Time
	bySlug  map[string]model.Series
}

func NewSlugIndex(db *DB, ttl time.Duration) *SlugIndex {
	if ttl <= 0 {
		ttl = DefaultSlugTTL
	}
	return &SlugIndex{db: db, ttl: ttl, now: time.Now}
}

// Lookup returns the series whose normalized name is slug. The slug itself
// is normalized first.
func (x *SlugIndex) Lookup(ctx context.Context, slug string) (model.Series, bool, error) {
	index, err := x.load(ctx)
	if err != nil {
		return model.Series{}, false, err
	}
	s, ok := index[normalize.Key(slug)]
	return s, ok, nil
}

// Invalidate forces the next lookup to rebuild the map.
func (x *SlugIndex) Invalidate() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.bySlug = nil
}

func (x *SlugIndex) load(ctx context.Context) (map[string]model.Series, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.bySlug != nil && x.now().Sub(x.builtAt) < x.ttl {
		return x.bySlug, nil
	}

	all, err := x.db.ListSeries(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]model.Series, len(all))
	for _, s := range all {
		key := normalize.Key(s.Name)
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = s
		}
	}
	x.bySlug = index
	x.builtAt = x.now()
	return index, nil
}
