//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"

	"github.com/bitofgold/topazcube/cache"
	"github.com/bitofgold/topazcube/gpucore"
)

// spirvCacheLimit bounds the compiled-shader cache: the engine's full
// pipeline set is a few dozen entry points, so this is never hit in
// practice; it exists to keep a pathological host from growing the
// cache without bound.
const spirvCacheLimit = 128

// Shader compilation errors.
var (
	// ErrShaderCompile is returned when a WGSL source fails to compile.
	ErrShaderCompile = errors.New("gpu: shader compilation failed")

	// ErrNoPrograms is returned when CompileAll is called with nothing registered.
	ErrNoPrograms = errors.New("gpu: no shader programs registered")
)

// ShaderProgram is one opaque WGSL blob plus the label used in compile
// diagnostics and as the key in CompileAll's result map.
type ShaderProgram struct {
	Label  string
	Source string
}

// ShaderModuleCreator is the single adapter capability pipeline
// compilation needs. gpucore.GPUAdapter satisfies it.
type ShaderModuleCreator interface {
	CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error)
}

// CompileWGSL compiles one WGSL source to SPIR-V words.
func CompileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}
	return spirvWords(spirvBytes), nil
}

// spirvWords reassembles little-endian SPIR-V bytes into 32-bit words.
func spirvWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}

// PipelineCompiler compiles every registered shader program and
// creates its module on an adapter. All compilations are issued
// concurrently and awaited as a group, once, at startup; any failure
// is fatal to the group and the caller clears its rendering state.
type PipelineCompiler struct {
	compile  func(source string) ([]byte, error)
	programs []ShaderProgram

	// spirv caches compiled words keyed by source text, so recreating
	// pipelines after a device loss skips recompiling unchanged shaders.
	spirv *cache.Cache[string, []uint32]
}

// NewPipelineCompiler builds a compiler over the given programs.
// More can be registered with Add before CompileAll runs.
func NewPipelineCompiler(programs ...ShaderProgram) *PipelineCompiler {
	return &PipelineCompiler{
		compile:  naga.Compile,
		programs: programs,
		spirv:    cache.New[string, []uint32](spirvCacheLimit),
	}
}

// Add registers one more program. Not safe to call concurrently with
// CompileAll.
func (p *PipelineCompiler) Add(program ShaderProgram) {
	p.programs = append(p.programs, program)
}

// CompileAll compiles every registered program concurrently, creates a
// shader module per program on creator, and returns the modules keyed
// by label. On any failure it logs every compile error (the compiler's
// diagnostics carry line/column and a source fragment), destroys
// nothing (no module is returned), and reports the joined error.
func (p *PipelineCompiler) CompileAll(creator ShaderModuleCreator) (map[string]gpucore.ShaderModuleID, error) {
	if len(p.programs) == 0 {
		return nil, ErrNoPrograms
	}

	modules := make([]gpucore.ShaderModuleID, len(p.programs))
	errs := make([]error, len(p.programs))

	var wg sync.WaitGroup
	for i, prog := range p.programs {
		wg.Add(1)
		go func(i int, prog ShaderProgram) {
			defer wg.Done()

			words, cached := p.spirv.Get(prog.Source)
			if !cached {
				spirvBytes, err := p.compile(prog.Source)
				if err != nil {
					errs[i] = fmt.Errorf("%w: %s: %w", ErrShaderCompile, prog.Label, err)
					return
				}
				words = spirvWords(spirvBytes)
				p.spirv.Set(prog.Source, words)
			}
			id, err := creator.CreateShaderModule(words, prog.Label)
			if err != nil {
				errs[i] = fmt.Errorf("gpu: shader module creation failed: %s: %w", prog.Label, err)
				return
			}
			modules[i] = id
		}(i, prog)
	}
	wg.Wait()

	var failed []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		slogger().Error("gpu: shader compilation failed",
			"shader", p.programs[i].Label, "error", err)
		failed = append(failed, err)
	}
	if len(failed) > 0 {
		return nil, errors.Join(failed...)
	}

	out := make(map[string]gpucore.ShaderModuleID, len(p.programs))
	for i, prog := range p.programs {
		out[prog.Label] = modules[i]
	}
	return out, nil
}
