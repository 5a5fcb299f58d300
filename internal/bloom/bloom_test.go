package bloom

import "testing"

func TestSoftThresholdBelowKneeIsZero(t *testing.T) {
	if v := SoftThreshold(0.1, 1.0, 0.5); v != 0 {
		t.Fatalf("expected zero contribution well below threshold, got %v", v)
	}
}

func TestSoftThresholdAboveThresholdPassesThrough(t *testing.T) {
	v := SoftThreshold(2.0, 1.0, 0.1)
	if v <= 0 {
		t.Fatalf("expected positive contribution above threshold, got %v", v)
	}
}

func TestSoftThresholdMonotonic(t *testing.T) {
	a := SoftThreshold(0.8, 1.0, 0.5)
	b := SoftThreshold(1.5, 1.0, 0.5)
	if b <= a {
		t.Fatalf("expected contribution to increase with luminance, got a=%v b=%v", a, b)
	}
}

func TestMipWeightsSumToOne(t *testing.T) {
	w := MipWeights(5)
	var sum float32
	for _, v := range w {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("expected weights to sum to ~1, got %v", sum)
	}
}

func TestMipWeightsDescending(t *testing.T) {
	w := MipWeights(4)
	for i := 1; i < len(w); i++ {
		if w[i] >= w[i-1] {
			t.Fatalf("expected descending weights, got %v", w)
		}
	}
}

func TestDownsampleDimensionsFloorsAtOne(t *testing.T) {
	w, h := DownsampleDimensions(1, 1)
	if w != 1 || h != 1 {
		t.Fatalf("expected floor at 1, got %d %d", w, h)
	}
}

func TestMipChainLengthTerminates(t *testing.T) {
	n := MipChainLength(1920, 1080, 8)
	if n < 1 || n > 32 {
		t.Fatalf("expected a reasonable mip chain length, got %d", n)
	}
}

func TestCompositeMaskDarkensUnderBrightScene(t *testing.T) {
	dark := CompositeMask(0)
	bright := CompositeMask(1)
	if bright >= dark {
		t.Fatalf("expected mask to shrink as scene luminance rises, dark=%v bright=%v", dark, bright)
	}
	if bright != 0 {
		t.Fatalf("expected mask of 0 at luminance 1, got %v", bright)
	}
}

func TestCompositeAddsScaledBloom(t *testing.T) {
	scene := [3]float32{0, 0, 0}
	bloomColor := [3]float32{1, 1, 1}
	out := Composite(scene, bloomColor, 0, 1)
	if out[0] <= 0 {
		t.Fatalf("expected bloom added to a dark pixel, got %v", out)
	}
}

func TestLuminanceRec709Weights(t *testing.T) {
	if got := Luminance([3]float32{1, 0, 0}); got != 0.2126 {
		t.Fatalf("expected red weight 0.2126, got %v", got)
	}
}
