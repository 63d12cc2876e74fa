package rpc

import (
	"sync"
	"time"
)

const (
	StateHealthy     = "healthy"
	StateDegraded    = "degraded"
	StateUnhealthy   = "unhealthy"
	StateBlacklisted = "blacklisted"
)

// Provider is one endpoint behind a Failover.
type Provider struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Client any    `json:"-"`

	mu sync.RWMutex // protect all fields below

	State               string        `json:"state"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	BlacklistedUntil    time.Time     `json:"blacklisted_until"`
	ConsecutiveErrors   int           `json:"consecutive_errors"`
}

func (p *Provider) state() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.State
}

// IsAvailable returns true if the provider is not blacklisted or blacklist expired.
func (p *Provider) IsAvailable(now time.Time) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.State != StateBlacklisted || now.After(p.BlacklistedUntil)
}

func (p *Provider) IsExpiredBlacklist(now time.Time) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.State == StateBlacklisted && now.After(p.BlacklistedUntil)
}

// Fail increases error count and updates state based on threshold.
func (p *Provider) Fail(threshold int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ConsecutiveErrors++
	switch {
	case p.ConsecutiveErrors >= threshold:
		p.State = StateUnhealthy
	case p.ConsecutiveErrors >= 2:
		p.State = StateDegraded
	}
}

func (p *Provider) Blacklist(until time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.State = StateBlacklisted
	p.BlacklistedUntil = until
}

// Recover reactivates a previously blacklisted provider.
func (p *Provider) Recover() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.State = StateDegraded
	p.BlacklistedUntil = time.Time{}
	p.ConsecutiveErrors = 0
}

// Success resets errors and updates the latency average.
func (p *Provider) Success(elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ConsecutiveErrors = 0
	p.State = StateHealthy
	if p.AverageResponseTime == 0 {
		p.AverageResponseTime = elapsed
	} else {
		p.AverageResponseTime = (p.AverageResponseTime + elapsed) / 2
	}
}
