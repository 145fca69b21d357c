package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// Gate presents a uniform, panic-free call contract over an Engine and
// serializes access when the engine is non-reentrant. Preprocessing and
// postprocessing around the raw call stay concurrent; only the
// recognition call itself holds the lock.
type Gate struct {
	engine Engine
	logger *slog.Logger

	// mu guards the raw recognition call for non-reentrant engines.
	// The engine's internal buffers are shared mutable state across all
	// workers submitting pages.
	mu sync.Mutex
}

// NewGate wraps an engine.
func NewGate(engine Engine, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		engine: engine,
		logger: logger.With("engine", engine.Name()),
	}
}

// Engine returns the wrapped engine.
func (g *Gate) Engine() Engine {
	return g.engine
}

// Recognize runs one recognition call through the gate. It never
// panics: engine panics and failures map to an empty OutcomeFailed
// result plus a logged diagnostic.
func (g *Gate) Recognize(ctx context.Context, image []byte) (rec Recognition) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("ocr engine panicked", "panic", r)
			rec = Recognition{
				Outcome: OutcomeFailed,
				Err:     fmt.Errorf("engine panic: %v", r),
			}
		}
	}()

	if !g.engine.Reentrant() {
		g.mu.Lock()
		defer g.mu.Unlock()
	}

	rec = g.engine.Recognize(ctx, image)
	if rec.Outcome != OutcomeOK && rec.Err != nil {
		g.logger.Error("ocr failed", "outcome", rec.Outcome.String(), "error", rec.Err)
	}
	return rec
}

// Registry caches gates per engine instance so repeated document runs
// reuse initialized engines. Keys are engine identity (pointer
// implementations), not structural equality - engine instances are not
// comparable by content.
type Registry struct {
	mu     sync.Mutex
	gates  map[Engine]*Gate
	logger *slog.Logger
}

// NewRegistry creates an empty registry. It is owned by the pipeline's
// lifetime, not package-global state.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		gates:  make(map[Engine]*Gate),
		logger: logger,
	}
}

// Gate returns the cached gate for an engine, creating one on first
// use.
func (r *Registry) Gate(engine Engine) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gates[engine]; ok {
		return g
	}
	g := NewGate(engine, r.logger)
	r.gates[engine] = g
	return g
}

// oomWord matches "oom" only as a whole word so messages like "failed
// to zoom" or "bloom filter" are not read as memory exhaustion.
var oomWord = regexp.MustCompile(`\boom\b`)

// ClassifyError maps an engine error to an outcome. Accelerator
// out-of-memory conditions are recoverable; everything else is a
// per-page failure.
func ClassifyError(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "out of memory") || oomWord.MatchString(msg) {
		return OutcomeResourceExhausted
	}
	return OutcomeFailed
}
