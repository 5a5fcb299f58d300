// Package skin computes per-joint pose matrices from a loaded asset's
// animation tracks: sampling one clip at a point in time, blending
// between two clips by an entity's current blend weight, and combining
// the result with each joint's inverse bind matrix into the matrix the
// vertex shader's skinning stage reads. Joints are treated as driving
// their bind-pose transform directly (no parent-to-child composition,
// matching how asset.Skin stores joints flat rather than as a node
// tree) — a model-space simplification, not a hierarchical rig.
package skin

import (
	"github.com/bitofgold/topazcube/internal/asset"
	"github.com/bitofgold/topazcube/internal/entity"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

// JointTransform is one joint's sampled local TRS before its inverse
// bind matrix is applied.
type JointTransform struct {
	Translation mathutil.Vec3
	Rotation    mathutil.Quaternion
	Scale       mathutil.Vec3
}

// identityTransform is the transform an unanimated joint holds: no
// translation, no rotation, unit scale.
func identityTransform() JointTransform {
	return JointTransform{Rotation: mathutil.QuaternionIdentity(), Scale: mathutil.Vec3One}
}

// Mat4 composes the joint's sampled TRS into a 4x4 matrix.
func (jt JointTransform) Mat4() mathutil.Mat4 {
	return mathutil.Mat4TRS(jt.Translation, jt.Rotation, jt.Scale)
}

// Lerp linearly interpolates translation/scale and spherically
// interpolates rotation toward o by t.
func (jt JointTransform) Lerp(o JointTransform, t float32) JointTransform {
	return JointTransform{
		Translation: jt.Translation.Lerp(o.Translation, t),
		Rotation:    jt.Rotation.Slerp(o.Rotation, t),
		Scale:       jt.Scale.Lerp(o.Scale, t),
	}
}

// sampleSampler evaluates a keyframe sampler at time, clamping to the
// first/last keyframe outside the track's range. Cubic-spline
// tangents are not evaluated; a cubic-spline track degrades to linear
// interpolation between its value keyframes.
func sampleSampler(s asset.Sampler, time float32) [4]float32 {
	if len(s.Times) == 0 {
		return [4]float32{}
	}
	if len(s.Times) == 1 || time <= s.Times[0] {
		return s.Values[0]
	}
	last := len(s.Times) - 1
	if time >= s.Times[last] {
		return s.Values[last]
	}

	hi := 1
	for hi <= last && s.Times[hi] < time {
		hi++
	}
	lo := hi - 1

	if s.Interpolation == asset.InterpStep {
		return s.Values[lo]
	}

	span := s.Times[hi] - s.Times[lo]
	t := float32(0)
	if span > 0 {
		t = (time - s.Times[lo]) / span
	}
	a, b := s.Values[lo], s.Values[hi]
	return [4]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	}
}

// SampleClip evaluates every channel of anim at time (clamped to
// [0, anim.Duration]) and returns one JointTransform per joint index
// 0..jointCount-1, defaulting to identity for joints the clip doesn't
// drive.
func SampleClip(anim asset.Animation, jointCount int, time float32) []JointTransform {
	out := make([]JointTransform, jointCount)
	for i := range out {
		out[i] = identityTransform()
	}

	if time < 0 {
		time = 0
	}
	if anim.Duration > 0 && time > anim.Duration {
		time = anim.Duration
	}

	for _, ch := range anim.Channels {
		if ch.TargetJoint < 0 || ch.TargetJoint >= jointCount {
			continue
		}
		v := sampleSampler(ch.Sampler, time)
		jt := &out[ch.TargetJoint]
		switch ch.Path {
		case asset.PathTranslation:
			jt.Translation = mathutil.Vec3{X: v[0], Y: v[1], Z: v[2]}
		case asset.PathRotation:
			jt.Rotation = mathutil.Quaternion{X: v[0], Y: v[1], Z: v[2], W: v[3]}.Normalize()
		case asset.PathScale:
			jt.Scale = mathutil.Vec3{X: v[0], Y: v[1], Z: v[2]}
		}
	}
	return out
}

// BlendTransforms blends two joint-transform sets by weight (0 = fully
// from, 1 = fully to), matching entity.AnimationState's documented
// Weight contract. Mismatched lengths are truncated to the shorter.
func BlendTransforms(from, to []JointTransform, weight float32) []JointTransform {
	n := len(from)
	if len(to) < n {
		n = len(to)
	}
	out := make([]JointTransform, n)
	for i := 0; i < n; i++ {
		out[i] = from[i].Lerp(to[i], weight)
	}
	return out
}

// Pose evaluates an entity's current animation state against sk,
// producing the blended, inverse-bind-applied matrix for every joint,
// ready to upload to the joint matrix texture the vertex shader reads.
// A nil or unset state yields sk's bind pose (every joint's inverse
// bind matrix alone, i.e. identity pose).
func Pose(sk *asset.Skin, state *entity.AnimationState) []mathutil.Mat4 {
	jointCount := len(sk.JointNames)
	out := make([]mathutil.Mat4, jointCount)

	if state == nil || state.ToAnimation == "" {
		for i := range out {
			out[i] = sk.InverseBind[i]
		}
		return out
	}

	to, ok := sk.Animations[state.ToAnimation]
	if !ok {
		for i := range out {
			out[i] = sk.InverseBind[i]
		}
		return out
	}

	toPose := SampleClip(to, jointCount, state.Elapsed)

	var blended []JointTransform
	if state.FromAnimation != "" && state.Weight < 1 {
		if from, ok := sk.Animations[state.FromAnimation]; ok {
			fromPose := SampleClip(from, jointCount, state.FromTime)
			blended = BlendTransforms(fromPose, toPose, state.Weight)
		}
	}
	if blended == nil {
		blended = toPose
	}

	for i, jt := range blended {
		out[i] = jt.Mat4().Mul(sk.InverseBind[i])
	}
	return out
}
