package geocode

import (
	"context"
	"errors"
	"math"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// memoPrecision is the number of decimals coordinates are rounded to before
// lookup (about 1cm at the equator).
const memoPrecision = 1e7

type memoKey struct {
	lat, lng int64
}

func keyFor(lat, lng float64) memoKey {
	return memoKey{
		lat: int64(math.Round(lat * memoPrecision)),
		lng: int64(math.Round(lng * memoPrecision)),
	}
}

type memoEntry struct {
	result *ReverseResult
	err    *LookupError
}

// Memo wraps a Reverser with an in-memory LRU so repeated coordinates in a
// single run hit the provider once. It holds nothing across process restarts.
type Memo struct {
	next  Reverser
	cache *lru.Cache
}

// NewMemo wraps next with an LRU of the given size.
func NewMemo(next Reverser, size int) (*Memo, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create memo")
	}
	return &Memo{next: next, cache: cache}, nil
}

// Name implements Reverser.
func (m *Memo) Name() string { return m.next.Name() }

// Len returns the number of memoised coordinates.
func (m *Memo) Len() int { return m.cache.Len() }

// Contains reports whether lat/lng would be answered from the memo without
// calling the provider.
func (m *Memo) Contains(lat, lng float64) bool {
	return m.cache.Contains(keyFor(lat, lng))
}

// ReverseGeocode implements Reverser. Successful lookups and no-result answers
// are memoised; transient failures are not.
func (m *Memo) ReverseGeocode(ctx context.Context, lat, lng float64) (*ReverseResult, error) {
	key := keyFor(lat, lng)

	if v, ok := m.cache.Get(key); ok {
		entry := v.(memoEntry)
		zap.L().Debug("geocode memo hit", zap.Float64("lat", lat), zap.Float64("lng", lng))
		if entry.err != nil {
			return nil, entry.err
		}
		r := *entry.result
		return &r, nil
	}

	result, err := m.next.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		var le *LookupError
		if errors.As(err, &le) && le.NoResult() {
			m.cache.Add(key, memoEntry{err: le})
		}
		return nil, err
	}

	stored := *result
	m.cache.Add(key, memoEntry{result: &stored})
	return result, nil
}
