package volumetric

import "testing"

func TestHenyeyGreensteinFloor(t *testing.T) {
	v := HenyeyGreenstein(-1, PhaseG)
	if v < PhaseFloor {
		t.Fatalf("expected phase >= floor %v, got %v", PhaseFloor, v)
	}
}

func TestHenyeyGreensteinForwardPeak(t *testing.T) {
	forward := HenyeyGreenstein(1, PhaseG)
	back := HenyeyGreenstein(-1, PhaseG)
	if forward <= back {
		t.Fatalf("expected forward scattering (cosTheta=1) to exceed backscatter, got forward=%v back=%v", forward, back)
	}
}

func TestClampStepBounds(t *testing.T) {
	if ClampStep(0.01) != MinStepSize {
		t.Fatal("expected clamp to MinStepSize")
	}
	if ClampStep(10) != MaxStepSize {
		t.Fatal("expected clamp to MaxStepSize")
	}
}

func TestSlabIntersectMisses(t *testing.T) {
	_, _, ok := SlabIntersect(100, 1, 0, 10, 1000)
	if ok {
		t.Fatal("ray moving away from slab above it should not intersect")
	}
}

func TestSlabIntersectHits(t *testing.T) {
	tEnter, tExit, ok := SlabIntersect(-5, 1, 0, 10, 1000)
	if !ok {
		t.Fatal("expected intersection")
	}
	if tEnter >= tExit {
		t.Fatalf("expected tEnter < tExit, got %v %v", tEnter, tExit)
	}
}

func TestHeightDensityBounds(t *testing.T) {
	if HeightDensity(-5, 0, 10) != 1 {
		t.Fatal("expected full density below bottomY")
	}
	if HeightDensity(20, 0, 10) != 0 {
		t.Fatal("expected zero density above topY")
	}
}

func TestAccumulateAlphaClampsPerSample(t *testing.T) {
	out := AccumulateAlpha(0, 1000, 1000)
	if out > MaxAlphaPerSample+1e-6 {
		t.Fatalf("expected per-sample delta clamped, got %v", out)
	}
}

func TestCompositeVisibilitySky(t *testing.T) {
	v := CompositeVisibility(0, 0.1, 1, 0.2, true)
	if v != 0.2 {
		t.Fatalf("expected sky brightness scaling with low luminance, got %v", v)
	}
}
