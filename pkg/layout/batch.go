package layout

import (
	"maps"
	"slices"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/rendering"
)

// Batch maps z keys (see bounds.ZKey) to draw primitives. A batch is never
// mutated once it is stored in the cache.
type Batch map[int64]rendering.Handle

// Put stores h at z, moving it up by one delta step until the key is free.
// It returns the key used.
func (b Batch) Put(z float64, h rendering.Handle) int64 {
	return b.put(bounds.ZKey(z), h)
}

func (b Batch) put(key int64, h rendering.Handle) int64 {
	for {
		if _, taken := b[key]; !taken {
			b[key] = h
			return key
		}
		key++
	}
}

// Merge adds every primitive of o, lowest z first, applying the same delta
// rule as Put.
func (b Batch) Merge(o Batch) {
	for _, k := range o.Keys() {
		b.put(k, o[k])
	}
}

// Keys returns the z keys in ascending order.
func (b Batch) Keys() []int64 {
	return slices.Sorted(maps.Keys(b))
}

// Handles returns the primitives lowest z first.
func (b Batch) Handles() []rendering.Handle {
	keys := b.Keys()
	out := make([]rendering.Handle, len(keys))
	for i, k := range keys {
		out[i] = b[k]
	}
	return out
}
