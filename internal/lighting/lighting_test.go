package lighting

import (
	"math"
	"testing"

	"github.com/bitofgold/topazcube/internal/mathutil"
	"github.com/bitofgold/topazcube/internal/shadow"
)

func cascadesForTest() []shadow.Cascade {
	return []shadow.Cascade{
		{Sphere: mathutil.Sphere{Radius: 10 * float32(math.Sqrt2)}},
		{Sphere: mathutil.Sphere{Radius: 30 * float32(math.Sqrt2)}},
		{Sphere: mathutil.Sphere{Radius: 60 * float32(math.Sqrt2)}},
	}
}

func TestSelectCascadeSmallestIndex(t *testing.T) {
	cascades := cascadesForTest()
	center := mathutil.Vec3{}
	// Well inside cascade 0.
	sel := SelectCascade(cascades, center, mathutil.Vec3{X: 2, Z: 2})
	if sel.Index != 0 {
		t.Fatalf("expected cascade 0, got %d", sel.Index)
	}
}

func TestSelectCascadeBeyondAll(t *testing.T) {
	cascades := cascadesForTest()
	center := mathutil.Vec3{}
	sel := SelectCascade(cascades, center, mathutil.Vec3{X: 1000, Z: 1000})
	if sel.Index != -1 {
		t.Fatalf("expected beyond-all (-1), got %d", sel.Index)
	}
	if sel.Lit != HalfLitBeyondCascades {
		t.Fatalf("expected half-lit %v, got %v", HalfLitBeyondCascades, sel.Lit)
	}
}

func TestSelectCascadeBlendContinuity(t *testing.T) {
	// At squircle distance 1.0 in cascade i, blend weight should be 1
	// (fully cascade i+1) to within 1 ULP.
	cascades := cascadesForTest()
	center := mathutil.Vec3{}
	halfWidth := cascades[0].Sphere.Radius / float32(math.Sqrt2)
	// Point exactly at distance ~1.0 from cascade 0's edge along +X.
	point := mathutil.Vec3{X: halfWidth * 0.99999, Z: 0}
	sel := SelectCascade(cascades, center, point)
	if sel.Index != 0 {
		t.Fatalf("expected still inside cascade 0, got %d", sel.Index)
	}
	if sel.BlendToNext < 0.9 {
		t.Fatalf("expected blend weight near 1 at cascade edge, got %v", sel.BlendToNext)
	}
}

func TestSpotConeAttenuationMonotone(t *testing.T) {
	inner := float32(math.Cos(0.2))
	outer := float32(math.Cos(0.5))
	if SpotConeAttenuation(1, inner, outer) != 1 {
		t.Fatal("on-axis should be fully lit")
	}
	if SpotConeAttenuation(outer-0.1, inner, outer) != 0 {
		t.Fatal("beyond outer cone should be zero")
	}
	mid := SpotConeAttenuation((inner+outer)/2, inner, outer)
	if mid <= 0 || mid >= 1 {
		t.Fatalf("expected interpolated attenuation in (0,1), got %v", mid)
	}
}

func TestVogelDiskCount(t *testing.T) {
	pts := VogelDisk(16)
	if len(pts) != 16 {
		t.Fatalf("expected 16 points, got %d", len(pts))
	}
	for _, p := range pts {
		r := math.Hypot(float64(p[0]), float64(p[1]))
		if r > 1.01 {
			t.Fatalf("sample radius %v exceeds unit disk", r)
		}
	}
}

func TestIBLSampleCountThreshold(t *testing.T) {
	if IBLSampleCount(0.05) != 1 {
		t.Fatal("expected single sample below roughness 0.1")
	}
	if IBLSampleCount(0.5) != 4 {
		t.Fatal("expected 4 samples above roughness 0.1")
	}
}

func TestRadiusAttenuationZeroBeyondRadius(t *testing.T) {
	if RadiusAttenuation(20, 10) != 0 {
		t.Fatal("expected zero attenuation beyond radius")
	}
	if RadiusAttenuation(0, 10) <= 0 {
		t.Fatal("expected positive attenuation at zero distance")
	}
}
