package gpucore

import (
	"math"
	"testing"
)

func TestVertexMarshalRoundTrip(t *testing.T) {
	v := Vertex{
		Position:    [3]float32{1, 2, 3},
		UV:          [2]float32{0.5, 0.25},
		Normal:      [3]float32{0, 1, 0},
		Color:       [4]float32{1, 1, 1, 1},
		SkinWeights: [4]float32{1, 0, 0, 0},
		SkinJoints:  [4]uint32{0, 0, 0, 0},
	}

	if got := v.Size(); got != VertexStride {
		t.Errorf("Size() = %d, want %d", got, VertexStride)
	}

	buf := v.Marshal()
	if len(buf) != VertexStride {
		t.Fatalf("Marshal() produced %d bytes, want %d", len(buf), VertexStride)
	}

	if got := math.Float32frombits(leUint32(buf[0:4])); got != v.Position[0] {
		t.Errorf("Position.X = %v, want %v", got, v.Position[0])
	}
	if got := math.Float32frombits(leUint32(buf[12:16])); got != v.UV[0] {
		t.Errorf("UV.X = %v, want %v", got, v.UV[0])
	}
}

func TestInstanceMarshalRoundTrip(t *testing.T) {
	var model [16]float32
	for i := range model {
		model[i] = float32(i)
	}

	inst := Instance{
		Model:          model,
		BoundingSphere: [4]float32{0, 0, 0, 1.5},
		UVTransform:    [4]float32{1, 1, 0, 0},
		Color:          [4]float32{1, 0, 0, 1},
	}

	if got := inst.Size(); got != InstanceStride {
		t.Errorf("Size() = %d, want %d", got, InstanceStride)
	}

	buf := inst.Marshal()
	if len(buf) != InstanceStride {
		t.Fatalf("Marshal() produced %d bytes, want %d", len(buf), InstanceStride)
	}

	if got := math.Float32frombits(leUint32(buf[64:68])); got != inst.BoundingSphere[0] {
		t.Errorf("BoundingSphere.X = %v, want %v", got, inst.BoundingSphere[0])
	}
	if got := math.Float32frombits(leUint32(buf[108:112])); got != inst.Color[3] {
		t.Errorf("Color.A = %v, want %v", got, inst.Color[3])
	}
}

func TestGPULightMarshal(t *testing.T) {
	l := GPULight{
		Enabled:     1,
		LightType:   LightTypeSpot,
		Position:    [3]float32{1, 2, 3},
		Color:       [4]float32{1, 1, 1, 10},
		Direction:   [3]float32{0, -1, 0},
		Geom:        [4]float32{50, 0.9, 0.8, 0.5},
		ShadowIndex: 7,
	}

	if got := l.Size(); got != GPULightSize {
		t.Errorf("Size() = %d, want %d", got, GPULightSize)
	}

	buf := l.Marshal()
	if len(buf) != GPULightSize {
		t.Fatalf("Marshal() produced %d bytes, want %d", len(buf), GPULightSize)
	}
	if got := leUint32(buf[0:4]); got != 1 {
		t.Errorf("Enabled = %d, want 1", got)
	}
	if got := leUint32(buf[4:8]); got != LightTypeSpot {
		t.Errorf("LightType = %d, want %d", got, LightTypeSpot)
	}
	if got := math.Float32frombits(leUint32(buf[44:48])); got != 10 {
		t.Errorf("intensity (color.w) = %v, want 10", got)
	}
	if got := math.Float32frombits(leUint32(buf[76:80])); got != 0.5 {
		t.Errorf("distance fade (geom.w) = %v, want 0.5", got)
	}
	if got := int32(leUint32(buf[80:84])); got != 7 {
		t.Errorf("ShadowIndex = %d, want 7", got)
	}
}

func TestGPULightMarshalNoShadow(t *testing.T) {
	l := GPULight{LightType: LightTypePoint, ShadowIndex: NoShadowIndex}
	buf := l.Marshal()
	if got := int32(leUint32(buf[80:84])); got != NoShadowIndex {
		t.Errorf("ShadowIndex = %d, want %d", got, NoShadowIndex)
	}
}

func TestMarshalLightBuffer(t *testing.T) {
	lights := []GPULight{
		{Enabled: 1, LightType: LightTypeDirectional, Color: [4]float32{1, 1, 1, 1}, ShadowIndex: NoShadowIndex},
		{Enabled: 1, LightType: LightTypePoint, Color: [4]float32{1, 0, 0, 5}, ShadowIndex: NoShadowIndex},
	}
	ambient := [3]float32{0.1, 0.1, 0.1}

	buf := MarshalLightBuffer(lights, ambient)
	want := 16 + len(lights)*GPULightSize
	if len(buf) != want {
		t.Fatalf("MarshalLightBuffer() produced %d bytes, want %d", len(buf), want)
	}
	if got := leUint32(buf[12:16]); got != uint32(len(lights)) {
		t.Errorf("header light count = %d, want %d", got, len(lights))
	}
}

func TestMarshalLightBufferTruncatesAtBudget(t *testing.T) {
	lights := make([]GPULight, MaxGPULights+10)
	buf := MarshalLightBuffer(lights, [3]float32{})

	want := 16 + MaxGPULights*GPULightSize
	if len(buf) != want {
		t.Fatalf("MarshalLightBuffer() produced %d bytes, want %d", len(buf), want)
	}
	if got := leUint32(buf[12:16]); got != uint32(MaxGPULights) {
		t.Errorf("header light count = %d, want %d", got, MaxGPULights)
	}
}

func TestGPUShadowDataMarshal(t *testing.T) {
	s := GPUShadowData{
		TexelSize:  [2]float32{1.0 / 2048, 1.0 / 2048},
		Bias:       0.005,
		NormalBias: 0.02,
	}
	for i := range s.LightVP {
		s.LightVP[i] = float32(i)
	}

	if got := s.Size(); got != 80 {
		t.Errorf("Size() = %d, want 80", got)
	}

	buf := s.Marshal()
	if len(buf) != 80 {
		t.Fatalf("Marshal() produced %d bytes, want 80", len(buf))
	}
	if got := math.Float32frombits(leUint32(buf[72:76])); got != s.Bias {
		t.Errorf("Bias = %v, want %v", got, s.Bias)
	}
}

func TestGPULightCullUniformsMarshal(t *testing.T) {
	u := GPULightCullUniforms{
		TileCountX:   120,
		TileCountY:   68,
		ScreenWidth:  1920,
		ScreenHeight: 1080,
		LightCount:   42,
		Near:         0.1,
		Far:          1000,
	}

	if got := u.Size(); got != 160 {
		t.Errorf("Size() = %d, want 160", got)
	}

	buf := u.Marshal()
	if len(buf) != 160 {
		t.Fatalf("Marshal() produced %d bytes, want 160", len(buf))
	}
	if got := leUint32(buf[128:132]); got != u.TileCountX {
		t.Errorf("TileCountX = %d, want %d", got, u.TileCountX)
	}
	if got := leUint32(buf[144:148]); got != u.LightCount {
		t.Errorf("LightCount = %d, want %d", got, u.LightCount)
	}
}

func TestGPUTileUniformsMarshal(t *testing.T) {
	u := GPUTileUniforms{TileCountX: 30, MaxLightsPerTile: 256}

	if got := u.Size(); got != 8 {
		t.Errorf("Size() = %d, want 8", got)
	}

	buf := u.Marshal()
	if leUint32(buf[0:4]) != 30 || leUint32(buf[4:8]) != 256 {
		t.Errorf("Marshal() = %v, want [30,256]", buf)
	}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
