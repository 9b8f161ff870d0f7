package distance

import (
	"context"
	"fmt"
	"sync"

	"transport-request-service/internal/ports"
)

type MockPair struct {
	From, To string
	Meters   int
	Seconds  int
}

// MockDistanceProvider serves fixed pairs for tests. Calls are counted and a
// Hook, when set, runs before every lookup (to block or fail on demand).
type MockDistanceProvider struct {
	m map[string]ports.DistanceResult

	mu    sync.Mutex
	calls int
	Hook  func(ctx context.Context, origin, destination string) error
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[string]ports.DistanceResult, len(pairs))
	for _, p := range pairs {
		m[p.From+"|"+p.To] = ports.DistanceResult{DistanceMeters: p.Meters, DurationSeconds: p.Seconds}
	}
	return &MockDistanceProvider{m: m}
}

func (p *MockDistanceProvider) GetDistance(ctx context.Context, origin, destination string) (ports.DistanceResult, error) {
	p.mu.Lock()
	p.calls++
	hook := p.Hook
	p.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, origin, destination); err != nil {
			return ports.DistanceResult{}, err
		}
	}

	r, ok := p.m[origin+"|"+destination]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("missing pair %q -> %q", origin, destination)
	}

	return r, nil
}

// Calls returns the number of GetDistance invocations so far.
func (p *MockDistanceProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
