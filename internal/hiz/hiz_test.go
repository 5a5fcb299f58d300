package hiz

import "testing"

func TestReduceMinLessEqualMax(t *testing.T) {
	const w, h = 130, 70
	depth := make([]float32, w*h)
	for i := range depth {
		depth[i] = float32(i%97) / 97
	}

	buf := NewBuffer(w, h, WorkgroupPixels)
	buf.Reduce(depth, w, h)

	cols, rows := buf.Dimensions()
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			min, max, ok := buf.MinMax(tx, ty)
			if !ok {
				t.Fatalf("tile (%d,%d) reported not ok", tx, ty)
			}
			if max < min {
				t.Fatalf("tile (%d,%d): max %v < min %v", tx, ty, max, min)
			}
		}
	}
}

func TestMinMaxOutOfRange(t *testing.T) {
	buf := NewBuffer(64, 64, WorkgroupPixels)
	if _, _, ok := buf.MinMax(-1, 0); ok {
		t.Fatal("expected ok=false for negative tile index")
	}
	cols, rows := buf.Dimensions()
	if _, _, ok := buf.MinMax(cols, rows-1); ok {
		t.Fatal("expected ok=false for tile index at cols bound")
	}
}

func TestDispatchSizeCoversScreen(t *testing.T) {
	x, y := DispatchSize(1920, 1080)
	if x*WorkgroupPixels < 1920 || y*WorkgroupPixels < 1080 {
		t.Fatalf("dispatch size (%d,%d) does not cover 1920x1080", x, y)
	}
}

func TestReduceConstantDepth(t *testing.T) {
	const w, h = 64, 64
	depth := make([]float32, w*h)
	for i := range depth {
		depth[i] = 0.5
	}
	buf := NewBuffer(w, h, WorkgroupPixels)
	buf.Reduce(depth, w, h)
	min, max, ok := buf.MinMax(0, 0)
	if !ok || min != 0.5 || max != 0.5 {
		t.Fatalf("expected (0.5,0.5), got (%v,%v,%v)", min, max, ok)
	}
}
