package asset

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/bitofgold/topazcube/gpucore"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

// LoadGLTF opens a .gltf/.glb file and returns one Asset per named mesh
// in the document, keyed by mesh name (falling back to "mesh_<index>"
// for unnamed meshes). A multi-primitive mesh produces one Asset whose
// Primitives slice holds every primitive and whose BoundingSphere
// unions all of them.
func LoadGLTF(path string) (map[string]*Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asset: open %q: %w", path, err)
	}

	skins := make([]*Skin, len(doc.Skins))
	for i, gs := range doc.Skins {
		sk, err := loadSkin(doc, gs)
		if err != nil {
			return nil, fmt.Errorf("asset: skin %d: %w", i, err)
		}
		skins[i] = sk
	}

	assets := make(map[string]*Asset, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		name := meshName(gm.Name, mi)

		a := &Asset{Key: name}
		var allPositions [][3]float32

		for pi, prim := range gm.Primitives {
			p, positions, err := loadPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("asset: mesh %q prim %d: %w", name, pi, err)
			}
			a.Primitives = append(a.Primitives, p)
			allPositions = append(allPositions, positions...)
		}

		a.BoundingSphere = boundingSphereFromPositions(allPositions)
		assets[name] = a
	}

	// glTF skins are a node-level reference, not a mesh-level one:
	// walk the nodes to find which mesh each skin actually drives.
	for _, gn := range doc.Nodes {
		if gn.Mesh == nil || gn.Skin == nil {
			continue
		}
		name := meshName(doc.Meshes[*gn.Mesh].Name, int(*gn.Mesh))
		a, ok := assets[name]
		if !ok || int(*gn.Skin) >= len(skins) {
			continue
		}
		a.Skin = skins[*gn.Skin]
		for i := range a.Primitives {
			a.Primitives[i].Skinned = true
		}
	}

	return assets, nil
}

func meshName(name string, index int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("mesh_%d", index)
}

func loadPrimitive(doc *gltf.Document, prim *gltf.Primitive) (Primitive, [][3]float32, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return Primitive{}, nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return Primitive{}, nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	var joints [][4]uint16
	var weights [][4]float32

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["JOINTS_0"]; ok {
		joints, _ = modeler.ReadJoints(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["WEIGHTS_0"]; ok {
		weights, _ = modeler.ReadWeights(doc, doc.Accessors[idx], nil)
	}

	verts := make([]gpucore.Vertex, len(positions))
	for i, p := range positions {
		v := gpucore.Vertex{
			Position: p,
			Color:    [4]float32{1, 1, 1, 1},
		}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.UV = uvs[i]
		}
		if i < len(weights) {
			v.SkinWeights = weights[i]
		}
		if i < len(joints) {
			j := joints[i]
			v.SkinJoints = [4]uint32{uint32(j[0]), uint32(j[1]), uint32(j[2]), uint32(j[3])}
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return Primitive{}, nil, fmt.Errorf("indices: %w", err)
		}
	}

	mat := MaterialProps{Albedo: mathutil.Vec4{X: 1, Y: 1, Z: 1, W: 1}, Roughness: 1, Metallic: 1}
	if prim.Material != nil {
		mat = loadMaterial(doc, doc.Materials[*prim.Material])
	}

	return Primitive{Vertices: verts, Indices: indices, Material: mat}, positions, nil
}

func loadMaterial(doc *gltf.Document, gm *gltf.Material) MaterialProps {
	mat := MaterialProps{
		Name:        gm.Name,
		Albedo:      mathutil.Vec4{X: 1, Y: 1, Z: 1, W: 1},
		Roughness:   1,
		Metallic:    1,
		DoubleSided: gm.DoubleSided,
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		cf := pbr.BaseColorFactorOrDefault()
		mat.Albedo = mathutil.Vec4{X: float32(cf[0]), Y: float32(cf[1]), Z: float32(cf[2]), W: float32(cf[3])}
		mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
		mat.Metallic = float32(pbr.MetallicFactorOrDefault())
		if pbr.BaseColorTexture != nil {
			mat.AlbedoTexture = textureURI(doc, uint32(pbr.BaseColorTexture.Index))
		}
	}
	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		mat.NormalTexture = textureURI(doc, uint32(*gm.NormalTexture.Index))
	}
	ef := gm.EmissiveFactor
	mat.Emissive = mathutil.Vec3{X: float32(ef[0]), Y: float32(ef[1]), Z: float32(ef[2])}
	return mat
}

func textureURI(doc *gltf.Document, texIdx uint32) string {
	if int(texIdx) >= len(doc.Textures) {
		return ""
	}
	tex := doc.Textures[texIdx]
	if tex.Source == nil {
		return ""
	}
	img := doc.Images[*tex.Source]
	return img.URI
}

func loadSkin(doc *gltf.Document, gs *gltf.Skin) (*Skin, error) {
	jointNames := make([]string, len(gs.Joints))
	nodeToJoint := make(map[uint32]int, len(gs.Joints))
	for i, nodeIdx := range gs.Joints {
		nodeToJoint[uint32(nodeIdx)] = i
		name := doc.Nodes[nodeIdx].Name
		if name == "" {
			name = fmt.Sprintf("joint_%d", nodeIdx)
		}
		jointNames[i] = name
	}

	var inverseBind []mathutil.Mat4
	if gs.InverseBindMatrices != nil {
		var err error
		inverseBind, err = loadInverseBindMatrices(doc, uint32(*gs.InverseBindMatrices))
		if err != nil {
			return nil, fmt.Errorf("inverse bind matrices: %w", err)
		}
	} else {
		inverseBind = make([]mathutil.Mat4, len(gs.Joints))
		for i := range inverseBind {
			inverseBind[i] = mathutil.Mat4Identity()
		}
	}

	animations, err := loadAnimations(doc, nodeToJoint)
	if err != nil {
		return nil, err
	}

	return &Skin{JointNames: jointNames, InverseBind: inverseBind, Animations: animations}, nil
}

// readFloatAccessor manually unpacks a tightly-packed float32 accessor
// from its buffer view, the way gpucore's marshal structs unpack GPU
// bytes: encoding/binary plus math.Float32frombits. The modeler
// package's typed readers (ReadPosition, ReadJoints, ...) cover vertex
// attributes; matrices and scalar animation curves fall outside that
// set, so they're read the same low-level way the engine already reads
// every other GPU-shaped byte buffer.
func readFloatAccessor(doc *gltf.Document, accessorIdx uint32, components int) ([]float32, error) {
	acc := doc.Accessors[accessorIdx]
	if acc.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", accessorIdx)
	}
	raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*acc.BufferView])
	if err != nil {
		return nil, err
	}

	offset := int(acc.ByteOffset)
	stride := components * 4
	out := make([]float32, int(acc.Count)*components)
	for i := 0; i < int(acc.Count); i++ {
		base := offset + i*stride
		for c := 0; c < components; c++ {
			b := base + c*4
			out[i*components+c] = math.Float32frombits(binary.LittleEndian.Uint32(raw[b : b+4]))
		}
	}
	return out, nil
}

func loadInverseBindMatrices(doc *gltf.Document, accessorIdx uint32) ([]mathutil.Mat4, error) {
	flat, err := readFloatAccessor(doc, accessorIdx, 16)
	if err != nil {
		return nil, err
	}

	out := make([]mathutil.Mat4, len(flat)/16)
	for i := range out {
		base := i * 16
		// glTF stores column-major 4x4 matrices; mathutil.Mat4 is
		// row-major (M[row][col]), so transpose while unpacking.
		var m mathutil.Mat4
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				m[row][col] = flat[base+col*4+row]
			}
		}
		out[i] = m
	}
	return out, nil
}

func loadAnimations(doc *gltf.Document, nodeToJoint map[uint32]int) (map[string]Animation, error) {
	anims := make(map[string]Animation, len(doc.Animations))
	for ai, ga := range doc.Animations {
		name := ga.Name
		if name == "" {
			name = fmt.Sprintf("anim_%d", ai)
		}
		anim := Animation{Name: name}

		for _, gch := range ga.Channels {
			if gch.Target.Node == nil {
				continue
			}
			jointIdx, ok := nodeToJoint[uint32(*gch.Target.Node)]
			if !ok {
				// Targets a node outside this skin's joint list
				// (another skin's joint, or a non-skinned node).
				continue
			}

			sampler := ga.Samplers[gch.Sampler]
			times, err := readFloatAccessor(doc, uint32(sampler.Input), 1)
			if err != nil {
				return nil, fmt.Errorf("animation %q sampler input: %w", name, err)
			}

			var path AnimationPath
			components := 3
			switch string(gch.Target.Path) {
			case "translation":
				path = PathTranslation
			case "rotation":
				path = PathRotation
				components = 4
			case "scale":
				path = PathScale
			default:
				continue // weights/morph-target channels not modeled
			}

			flat, err := readFloatAccessor(doc, uint32(sampler.Output), components)
			if err != nil {
				return nil, fmt.Errorf("animation %q sampler output: %w", name, err)
			}
			values := make([][4]float32, len(flat)/components)
			for i := range values {
				copy(values[i][:components], flat[i*components:(i+1)*components])
			}

			interp := InterpLinear
			switch string(sampler.Interpolation) {
			case "STEP":
				interp = InterpStep
			case "CUBICSPLINE":
				interp = InterpCubicSpline
			}

			var duration float32
			if len(times) > 0 {
				duration = times[len(times)-1]
			}
			if duration > anim.Duration {
				anim.Duration = duration
			}

			anim.Channels = append(anim.Channels, Channel{
				TargetJoint: jointIdx,
				Path:        path,
				Sampler:     Sampler{Times: times, Values: values, Interpolation: interp},
			})
		}
		anims[name] = anim
	}
	return anims, nil
}

func boundingSphereFromPositions(positions [][3]float32) mathutil.Sphere {
	if len(positions) == 0 {
		return mathutil.Sphere{}
	}

	var sum mathutil.Vec3
	for _, p := range positions {
		sum.X += p[0]
		sum.Y += p[1]
		sum.Z += p[2]
	}
	n := float32(len(positions))
	center := mathutil.Vec3{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}

	var maxDistSq float32
	for _, p := range positions {
		dx := p[0] - center.X
		dy := p[1] - center.Y
		dz := p[2] - center.Z
		if d := dx*dx + dy*dy + dz*dz; d > maxDistSq {
			maxDistSq = d
		}
	}
	return mathutil.Sphere{Center: center, Radius: float32(math.Sqrt(float64(maxDistSq)))}
}
