package planar

import (
	"testing"

	"github.com/bitofgold/topazcube/internal/mathutil"
)

func TestReflectionMatrixReflectsAboutPlane(t *testing.T) {
	m := ReflectionMatrix(5)
	p := mathutil.Vec3{X: 1, Y: 3, Z: 2}
	got := m.MulPoint(p)
	want := mathutil.Vec3{X: 1, Y: 7, Z: 2} // reflected about y=5: 5 + (5-3) = 7
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestReflectionMatrixIdempotentOnPlane(t *testing.T) {
	m := ReflectionMatrix(0)
	p := mathutil.Vec3{X: 2, Y: 0, Z: -1}
	got := m.MulPoint(p)
	if got != p {
		t.Fatalf("point on the plane should be unchanged, got %v", got)
	}
}

func TestReflectCamera(t *testing.T) {
	eye := mathutil.Vec3{X: 0, Y: 10, Z: 5}
	target := mathutil.Vec3{X: 0, Y: 10, Z: 0}
	up := mathutil.Vec3{Y: 1}
	rEye, rTarget, rUp := ReflectCamera(eye, target, up, 0)
	if rEye.Y != -10 || rTarget.Y != -10 {
		t.Fatalf("expected Y mirrored about 0, got eye=%v target=%v", rEye, rTarget)
	}
	if rUp.Y != -1 {
		t.Fatalf("expected up vector flipped, got %v", rUp)
	}
}

func TestDistanceFadeBounds(t *testing.T) {
	if DistanceFade(0, 0, 10) != 1 {
		t.Fatal("expected full strength at the plane")
	}
	if DistanceFade(100, 0, 10) != 0 {
		t.Fatal("expected zero strength beyond fadeDistance")
	}
}
