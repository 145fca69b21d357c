package ocr

import (
	"context"
	"sync"
)

// MockEngine is a scripted engine for tests. Results are returned in
// order; the last one repeats once the script is exhausted.
type MockEngine struct {
	mu sync.Mutex

	// EngineName defaults to "mock".
	EngineName string

	// IsStructured controls Structured().
	IsStructured bool

	// IsReentrant controls Reentrant().
	IsReentrant bool

	// Script is consumed one entry per Recognize call.
	Script []Recognition

	// RecognizeFn, when set, overrides Script entirely.
	RecognizeFn func(ctx context.Context, image []byte) Recognition

	calls       int
	inFlight    int
	maxInFlight int
}

func (m *MockEngine) Name() string {
	if m.EngineName == "" {
		return "mock"
	}
	return m.EngineName
}

func (m *MockEngine) Structured() bool { return m.IsStructured }
func (m *MockEngine) Reentrant() bool  { return m.IsReentrant }

func (m *MockEngine) Recognize(ctx context.Context, image []byte) Recognition {
	m.mu.Lock()
	m.calls++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	idx := m.calls - 1
	fn := m.RecognizeFn
	var scripted Recognition
	if fn == nil {
		if len(m.Script) == 0 {
			scripted = Recognition{Outcome: OutcomeOK}
		} else if idx < len(m.Script) {
			scripted = m.Script[idx]
		} else {
			scripted = m.Script[len(m.Script)-1]
		}
	}
	m.mu.Unlock()

	if fn != nil {
		scripted = fn(ctx, image)
	}

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
	return scripted
}

// Calls returns how many times Recognize ran.
func (m *MockEngine) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MaxConcurrent returns the peak number of overlapping Recognize calls.
func (m *MockEngine) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// Verify interface
var _ Engine = (*MockEngine)(nil)
