package monitor

import (
	"errors"
	"testing"
)

func TestShouldBackOff(t *testing.T) {
	m := New(Config{BackoffThreshold: 80})

	t.Run("below threshold", func(t *testing.T) {
		m.sample = func() (float64, error) { return 50, nil }
		if m.ShouldBackOff() {
			t.Error("did not expect backoff at 50%")
		}
	})

	t.Run("above threshold", func(t *testing.T) {
		m.sample = func() (float64, error) { return 92.5, nil }
		if !m.ShouldBackOff() {
			t.Error("expected backoff at 92.5%")
		}
	})

	t.Run("at threshold", func(t *testing.T) {
		m.sample = func() (float64, error) { return 80, nil }
		if m.ShouldBackOff() {
			t.Error("backoff requires strictly exceeding the threshold")
		}
	})

	t.Run("sample failure never backs off", func(t *testing.T) {
		m.sample = func() (float64, error) { return 0, errors.New("proc unavailable") }
		if m.ShouldBackOff() {
			t.Error("sampling failure must not trigger backoff")
		}
	})
}

type fakeCache struct {
	cleared int
}

func (f *fakeCache) Clear()                        { f.cleared++ }
func (f *fakeCache) Stats() (uint64, uint64, bool) { return 1e6, 2e6, true }

func TestClearAcceleratorCache(t *testing.T) {
	t.Run("nil cache is a no-op", func(t *testing.T) {
		m := New(Config{})
		m.ClearAcceleratorCache()
	})

	t.Run("delegates to cache", func(t *testing.T) {
		cache := &fakeCache{}
		m := New(Config{Cache: cache})
		m.ClearAcceleratorCache()
		if cache.cleared != 1 {
			t.Errorf("expected 1 clear, got %d", cache.cleared)
		}
	})
}
