package asset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitofgold/topazcube/cache"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

// ErrNotFound is returned when a model key references a mesh the
// loaded file does not contain.
var ErrNotFound = errors.New("asset: not found")

// fileAssets is the sharded cache's value type: every mesh loaded from
// one file, or the error encountered loading it. Caching the error
// alongside a successful result means a permanently-missing file is
// not re-opened on every subsequent Resolve call for it.
type fileAssets struct {
	meshes map[string]*Asset
	err    error
}

// Cache lazily loads and caches models keyed by the Entity.ModelKey
// contract: "path" for one of the file's meshes (which one is not
// defined when the file holds several), or "path|mesh" for one named
// mesh within it. Either form loads and caches every mesh in the file. Concurrent requests for the same file are
// deduplicated by the underlying sharded cache's GetOrCreate, which
// holds its shard lock for the duration of the load.
type Cache struct {
	files    *cache.ShardedCache[string, fileAssets]
	loadFile func(string) (map[string]*Asset, error)
}

// NewCache creates an asset cache with the given per-shard capacity
// (distinct files cached per shard, not meshes).
func NewCache(capacity int) *Cache {
	return &Cache{
		files:    cache.NewSharded[string, fileAssets](capacity, cache.StringHasher),
		loadFile: LoadGLTF,
	}
}

// Resolve loads (or returns the cached result for) the model
// referenced by key.
func (c *Cache) Resolve(key string) (*Asset, error) {
	path, mesh, _ := strings.Cut(key, "|")

	fa := c.files.GetOrCreate(path, func() fileAssets {
		meshes, err := c.loadFile(path)
		return fileAssets{meshes: meshes, err: err}
	})
	if fa.err != nil {
		return nil, fmt.Errorf("asset: load %q: %w", path, fa.err)
	}

	if mesh == "" {
		for _, a := range fa.meshes {
			return a, nil
		}
		return nil, fmt.Errorf("%w: %q has no meshes", ErrNotFound, path)
	}

	a, ok := fa.meshes[mesh]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %q", ErrNotFound, mesh, path)
	}
	return a, nil
}

// BoundingSphere implements cull.AssetResolver: an unresolved or
// failed-to-load model contributes zero visible extent rather than an
// error, per culling's own failure semantics.
func (c *Cache) BoundingSphere(modelKey string) (mathutil.Sphere, bool) {
	a, err := c.Resolve(modelKey)
	if err != nil {
		return mathutil.Sphere{}, false
	}
	return a.BoundingSphere, true
}

// IsSkinned implements cull.AssetResolver.
func (c *Cache) IsSkinned(modelKey string) bool {
	a, err := c.Resolve(modelKey)
	if err != nil {
		return false
	}
	return a.HasSkin()
}

// AnimationDuration implements cull.AssetResolver.
func (c *Cache) AnimationDuration(modelKey, animation string) float32 {
	a, err := c.Resolve(modelKey)
	if err != nil || a.Skin == nil {
		return 0
	}
	return a.Skin.Animations[animation].Duration
}
