package memory

import (
	"sync"

	"github.com/shirou/gopsutil/v4/mem"
)

// Gauge reports the fraction of total memory currently in use, in [0, 1].
type Gauge interface {
	UsedFraction() (float64, error)
}

// System reads virtual memory statistics from the operating system.
type System struct{}

// UsedFraction returns the system-wide used memory fraction.
func (System) UsedFraction() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent / 100.0, nil
}

// Static is a fixed gauge for tests and for disabling eviction.
type Static struct {
	mu       sync.Mutex
	fraction float64
	err      error
}

// NewStatic creates a Static gauge reporting the given fraction.
func NewStatic(fraction float64) *Static {
	return &Static{fraction: fraction}
}

// UsedFraction returns the configured fraction.
func (s *Static) UsedFraction() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fraction, s.err
}

// Set updates the reported fraction.
func (s *Static) Set(fraction float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fraction = fraction
}

// SetError makes the gauge fail, for error-path tests.
func (s *Static) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
