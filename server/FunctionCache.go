package server

import (
	"context"
	"time"

	"github.com/neritic/functiond/metadata/models"
)

// functionCacheTTL bounds staleness of cached function records. Updates and
// deletes through this instance invalidate eagerly; the TTL covers writes
// made by other instances against the same database.
const functionCacheTTL = 5 * time.Minute

// FetchFunction returns the function with the given guid, preferring the
// LRU cache over the database.
func (h AppServer) FetchFunction(ctx context.Context, guid string) (models.Function, error) {
	if item := h.FunctionLruCache.Get(guid); item != nil && !item.Expired() {
		if fn, ok := item.Value().(models.Function); ok {
			return fn, nil
		}
	}
	d := DAOFromContext(ctx)
	fn, err := d.GetFunction(guid)
	if err != nil {
		return fn, err
	}
	h.FunctionLruCache.Set(guid, fn, functionCacheTTL)
	return fn, nil
}

// EvictFunction drops a guid from the cache after a mutation.
func (h AppServer) EvictFunction(guid string) {
	h.FunctionLruCache.Delete(guid)
}
