package asset

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bitofgold/topazcube/cache"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

func TestBoundingSphereUnionCoversAllPositions(t *testing.T) {
	positions := [][3]float32{
		{-1, 0, 0}, {1, 0, 0}, {0, 0, 5}, {0, -2, 0},
	}
	s := boundingSphereFromPositions(positions)

	for _, p := range positions {
		dx := p[0] - s.Center.X
		dy := p[1] - s.Center.Y
		dz := p[2] - s.Center.Z
		d := mathutil.Vec3{X: dx, Y: dy, Z: dz}.Length()
		if d > s.Radius+1e-4 {
			t.Errorf("position %v (dist %v) outside bounding sphere radius %v", p, d, s.Radius)
		}
	}
}

func TestBoundingSphereEmptyIsZero(t *testing.T) {
	s := boundingSphereFromPositions(nil)
	if s.Radius != 0 {
		t.Errorf("Radius = %v, want 0 for no positions", s.Radius)
	}
}

func newTestCache(load func(string) (map[string]*Asset, error)) *Cache {
	return &Cache{
		files:    cache.NewSharded[string, fileAssets](16, cache.StringHasher),
		loadFile: load,
	}
}

func TestResolveDedupesConcurrentLoads(t *testing.T) {
	var loadCount atomic.Int32
	c := newTestCache(func(path string) (map[string]*Asset, error) {
		loadCount.Add(1)
		return map[string]*Asset{
			"body": {Key: "body", BoundingSphere: mathutil.Sphere{Radius: 1}},
		}, nil
	})

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := c.Resolve("model.glb|body")
			if err != nil {
				errs <- err
				return
			}
			if a.Key != "body" {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}

	if got := loadCount.Load(); got != 1 {
		t.Errorf("loadFile called %d times, want 1", got)
	}
}

func TestResolveMissingMeshReturnsError(t *testing.T) {
	c := newTestCache(func(path string) (map[string]*Asset, error) {
		return map[string]*Asset{"body": {Key: "body"}}, nil
	})
	if _, err := c.Resolve("model.glb|missing"); err == nil {
		t.Error("expected error for missing mesh key")
	}
}

func TestResolveWholeFileKeyReturnsAMesh(t *testing.T) {
	c := newTestCache(func(path string) (map[string]*Asset, error) {
		return map[string]*Asset{"only": {Key: "only"}}, nil
	})
	a, err := c.Resolve("model.glb")
	if err != nil {
		t.Fatal(err)
	}
	if a.Key != "only" {
		t.Errorf("Key = %q, want only", a.Key)
	}
}

func TestResolvePropagatesLoadError(t *testing.T) {
	c := newTestCache(func(path string) (map[string]*Asset, error) {
		return nil, errFake
	})
	if _, err := c.Resolve("missing.glb"); err == nil {
		t.Error("expected load error to propagate")
	}
}

var errFake = &fakeErr{"boom"}

type fakeErr struct{ msg string }

func (e *fakeErr) Error() string { return e.msg }
