// Package particles implements the GPU particle system's CPU-testable
// contract: the fixed-capacity particle record's GPU marshaling, the
// spawn-request ring's atomic slot-claim protocol, and the simulate
// step's integration/lifetime math (velocity, gravity, drag, lifetime
// fade, and the smoothed per-particle lighting target). The actual
// `spawn`/`simulate` compute shader entry points are opaque WGSL blobs
// per the engine's scope; this package is the reference implementation
// their host-side buffer layout and spawn bookkeeping must agree with,
// and doubles as a CPU fallback simulate path.
package particles

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// Stride is the fixed byte size of one particle record: position(3) +
// lifetime(1) + velocity(3) + maxLifetime(1) + color(4) + size(1) +
// rotation(1) + flags(1) + smoothedLighting(3) = 18 float32 lanes +
// 2 padding lanes = 80 bytes.
const Stride = 80

// Flag bits packed into Particle.Flags.
const (
	FlagAlive uint32 = 1 << iota
	FlagAdditiveBlend
)

// Particle is one GPU particle record.
type Particle struct {
	Position          [3]float32
	Lifetime          float32
	Velocity          [3]float32
	MaxLifetime       float32
	Color             [4]float32
	Size              float32
	Rotation          float32
	Flags             uint32
	SmoothedLighting  [3]float32
	_pad              float32
}

// Alive reports whether the particle's alive flag is set and it has
// remaining lifetime.
func (p *Particle) Alive() bool {
	return p.Flags&FlagAlive != 0 && p.Lifetime > 0
}

// Marshal serializes the particle into an 80-byte little-endian
// buffer matching Stride.
func (p *Particle) Marshal() []byte {
	buf := make([]byte, Stride)
	off := 0
	putF32 := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	for _, v := range p.Position {
		putF32(v)
	}
	putF32(p.Lifetime)
	for _, v := range p.Velocity {
		putF32(v)
	}
	putF32(p.MaxLifetime)
	for _, v := range p.Color {
		putF32(v)
	}
	putF32(p.Size)
	putF32(p.Rotation)
	binary.LittleEndian.PutUint32(buf[off:off+4], p.Flags)
	off += 4
	for _, v := range p.SmoothedLighting {
		putF32(v)
	}
	putF32(p._pad)
	return buf
}

// SpawnRequest is one emitter's request for a new particle, read from
// the spawn-request ring by the claim step.
type SpawnRequest struct {
	Position    [3]float32
	Velocity    [3]float32
	Color       [4]float32
	Size        float32
	MaxLifetime float32
	Additive    bool
}

// MaxClaimProbes is the number of slots the spawn step probes looking
// for a free (dead) particle before giving up on a request, bounding
// spawn cost so a pathological capacity doesn't turn spawning into an
// O(capacity) scan per request.
const MaxClaimProbes = 8

// System owns the fixed-capacity particle buffer and the atomic counter
// tracking how many entries are currently alive, mirroring the compute
// shader's `aliveCount` atomic.
type System struct {
	particles []Particle
	aliveCount atomic.Int64
	nextProbe  int
}

// NewSystem allocates a particle system with the given fixed capacity.
func NewSystem(capacity int) *System {
	return &System{particles: make([]Particle, capacity)}
}

// Capacity returns the particle buffer's fixed size.
func (s *System) Capacity() int { return len(s.particles) }

// AliveCount returns the current count of alive particles.
func (s *System) AliveCount() int64 { return s.aliveCount.Load() }

// Spawn claims a free slot for each request (up to MaxClaimProbes
// probes starting from a rotating cursor so repeated calls don't
// thrash the same few slots), writing the new particle state and
// incrementing aliveCount. Requests beyond available capacity are
// silently dropped; buffer overflow never surfaces a user error.
func (s *System) Spawn(requests []SpawnRequest) {
	for _, r := range requests {
		s.spawnOne(r)
	}
}

func (s *System) spawnOne(r SpawnRequest) bool {
	n := len(s.particles)
	if n == 0 {
		return false
	}
	start := s.nextProbe
	for i := 0; i < MaxClaimProbes; i++ {
		idx := (start + i) % n
		p := &s.particles[idx]
		if p.Alive() {
			continue
		}
		*p = Particle{
			Position:    r.Position,
			Velocity:    r.Velocity,
			Color:       r.Color,
			Size:        r.Size,
			MaxLifetime: r.MaxLifetime,
			Lifetime:    r.MaxLifetime,
			Flags:       FlagAlive,
		}
		if r.Additive {
			p.Flags |= FlagAdditiveBlend
		}
		s.nextProbe = (idx + 1) % n
		s.aliveCount.Add(1)
		return true
	}
	return false
}

// SimulateParams configures one simulate step's integration.
type SimulateParams struct {
	DT         float32
	Gravity    [3]float32
	Drag       float32
	Turbulence func(pos [3]float32, t float32) [3]float32 // 3D noise field; nil disables turbulence
	Time       float32
	FadeIn     float32 // fraction of lifetime alpha ramps in over
	FadeOut    float32 // fraction of lifetime alpha ramps out over
}

// Simulate advances every alive particle by one step: integrates
// velocity (gravity - drag + turbulence), decrements lifetime, updates
// alpha via fade-in/out, and reclaims dead particles by clearing their
// alive flag and decrementing aliveCount. Runs in O(capacity).
func (s *System) Simulate(p SimulateParams) {
	for i := range s.particles {
		part := &s.particles[i]
		if !part.Alive() {
			continue
		}

		part.Lifetime -= p.DT
		if part.Lifetime <= 0 {
			part.Flags &^= FlagAlive
			s.aliveCount.Add(-1)
			continue
		}

		var accel [3]float32
		for k := 0; k < 3; k++ {
			accel[k] = p.Gravity[k] - part.Velocity[k]*p.Drag
		}
		if p.Turbulence != nil {
			turb := p.Turbulence(part.Position, p.Time)
			for k := 0; k < 3; k++ {
				accel[k] += turb[k]
			}
		}
		for k := 0; k < 3; k++ {
			part.Velocity[k] += accel[k] * p.DT
			part.Position[k] += part.Velocity[k] * p.DT
		}

		part.Color[3] = LifetimeAlpha(part.Lifetime, part.MaxLifetime, p.FadeIn, p.FadeOut)
	}
}

// LifetimeAlpha computes a particle's alpha from its remaining lifetime
// fraction, ramping in over the first fadeIn fraction of its lifespan
// and out over the last fadeOut fraction.
func LifetimeAlpha(lifetime, maxLifetime, fadeIn, fadeOut float32) float32 {
	if maxLifetime <= 0 {
		return 0
	}
	age := maxLifetime - lifetime
	t := age / maxLifetime // 0 at spawn, 1 at death

	alpha := float32(1)
	if fadeIn > 0 && t < fadeIn {
		alpha = t / fadeIn
	}
	if fadeOut > 0 {
		fadeOutStart := 1 - fadeOut
		if t > fadeOutStart {
			fadeAlpha := 1 - (t-fadeOutStart)/fadeOut
			if fadeAlpha < alpha {
				alpha = fadeAlpha
			}
		}
	}
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}

// SmoothLighting exponentially smooths a particle's per-frame lighting
// sample toward targetLight, avoiding flicker from single-tap shadow
// sampling.
func SmoothLighting(current, target [3]float32, dt, rate float32) [3]float32 {
	alpha := 1 - float32(math.Exp(float64(-rate*dt)))
	var out [3]float32
	for i := range out {
		out[i] = current[i] + (target[i]-current[i])*alpha
	}
	return out
}

// SoftParticleFade computes the soft-particle blend factor from the
// difference between the particle's linear depth and the opaque
// scene's linear depth at the same screen position: particles fade out
// as they approach intersecting opaque geometry instead of hard-clipping.
func SoftParticleFade(particleDepth, sceneDepth, fadeDistance float32) float32 {
	if fadeDistance <= 0 {
		return 1
	}
	diff := sceneDepth - particleDepth
	if diff <= 0 {
		return 0
	}
	if diff >= fadeDistance {
		return 1
	}
	return diff / fadeDistance
}
