package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fystack/crown-clash/pkg/clock"
	"github.com/fystack/crown-clash/pkg/common/logger"
	"github.com/fystack/crown-clash/pkg/retry"
)

// FailoverConfig defines runtime behavior of the failover system.
type FailoverConfig struct {
	// ErrorThreshold is the number of consecutive plain failures after which
	// a provider is reported unhealthy.
	ErrorThreshold int
	Attempts       int
	RetryInterval  time.Duration
	Clock          clock.Clock
}

func DefaultFailoverConfig() FailoverConfig {
	return FailoverConfig{
		ErrorThreshold: 5,
		Attempts:       retry.DefaultMaxAttempts,
		RetryInterval:  retry.DefaultInterval,
	}
}

// ProviderIssue is an analyzed provider error.
type ProviderIssue struct {
	Reason   string
	Cooldown time.Duration
	// MarkUnhealthy blacklists the provider for Cooldown.
	MarkUnhealthy bool
	// Permanent errors are the caller's fault and are not retried anywhere.
	Permanent bool
}

// Failover spreads calls over providers whose clients are T, moving off a
// provider once it is blacklisted.
type Failover[T any] struct {
	mu           sync.RWMutex
	providers    []*Provider
	currentIndex int
	config       FailoverConfig
}

func NewFailover[T any](config *FailoverConfig) *Failover[T] {
	cfg := DefaultFailoverConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = 5
	}
	return &Failover[T]{currentIndex: -1, config: cfg}
}

// AddProvider adds a provider, ensuring its Client is of type T.
func (f *Failover[T]) AddProvider(p *Provider) error {
	if _, ok := p.Client.(T); !ok {
		return fmt.Errorf("invalid provider client type: expected %T, got %T", *new(T), p.Client)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if p.State == "" {
		p.State = StateHealthy
	}
	f.providers = append(f.providers, p)
	if f.currentIndex == -1 {
		f.currentIndex = 0
	}
	logger.Info("Added provider", "name", p.Name, "url", p.URL)
	return nil
}

func (f *Failover[T]) Providers() []*Provider {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]*Provider(nil), f.providers...)
}

// GetBestProvider returns the current provider, or the next available one
// when the current one is blacklisted.
func (f *Failover[T]) GetBestProvider() (*Provider, error) {
	f.mu.RLock()
	if len(f.providers) == 0 {
		f.mu.RUnlock()
		return nil, errors.New("no providers configured")
	}
	providers := append([]*Provider(nil), f.providers...)
	curIdx := f.currentIndex
	f.mu.RUnlock()

	now := f.config.Clock.Now()
	for _, p := range providers {
		if p.IsExpiredBlacklist(now) {
			logger.Info("Recovering expired blacklisted provider", "provider", p.Name)
			p.Recover()
		}
	}

	if cur := providers[curIdx]; cur.IsAvailable(now) {
		return cur, nil
	}
	return f.findNextAvailableProvider(now)
}

func (f *Failover[T]) findNextAvailableProvider(now time.Time) (*Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := f.currentIndex
	for i := 0; i < len(f.providers); i++ {
		idx := (start + i + 1) % len(f.providers)
		if p := f.providers[idx]; p.IsAvailable(now) {
			logger.Info("Switching to provider",
				"from_index", f.currentIndex,
				"to_index", idx,
				"provider", p.Name,
			)
			f.currentIndex = idx
			return p, nil
		}
	}
	return f.performEmergencyRecoveryLocked()
}

// performEmergencyRecoveryLocked revives the provider whose blacklist ends
// first. f.mu must be held.
func (f *Failover[T]) performEmergencyRecoveryLocked() (*Provider, error) {
	var blacklisted []int
	for i, p := range f.providers {
		if p.state() == StateBlacklisted {
			blacklisted = append(blacklisted, i)
		}
	}
	if len(blacklisted) == 0 {
		return nil, errors.New("no providers available")
	}
	sort.Slice(blacklisted, func(i, j int) bool {
		return f.providers[blacklisted[i]].BlacklistedUntil.Before(f.providers[blacklisted[j]].BlacklistedUntil)
	})

	idx := blacklisted[0]
	first := f.providers[idx]
	first.Recover()
	f.currentIndex = idx
	logger.Warn("Emergency recovery", "provider", first.Name)
	return first, nil
}

// Execute runs fn against the best provider, switching providers between
// attempts. Errors the provider is not to blame for are returned at once.
func (f *Failover[T]) Execute(ctx context.Context, fn func(T) error) error {
	return retry.Constant(ctx, func() error {
		provider, err := f.GetBestProvider()
		if err != nil {
			return retry.Permanent(fmt.Errorf("no available provider: %w", err))
		}
		return f.executeCore(provider, fn)
	}, f.config.RetryInterval, f.config.Attempts)
}

func (f *Failover[T]) executeCore(provider *Provider, fn func(T) error) error {
	client := provider.Client.(T)

	start := f.config.Clock.Now()
	err := fn(client)
	elapsed := f.config.Clock.Since(start)
	if err == nil {
		provider.Success(elapsed)
		return nil
	}

	issue := AnalyzeError(err)
	switch {
	case issue.Permanent:
		if retry.IsPermanent(err) {
			return err
		}
		return retry.Permanent(err)
	case issue.MarkUnhealthy:
		logger.Warn("Blacklisting provider",
			"provider", provider.Name,
			"reason", issue.Reason,
			"cooldown", issue.Cooldown,
		)
		provider.Blacklist(f.config.Clock.Now().Add(issue.Cooldown))
	default:
		provider.Fail(f.config.ErrorThreshold)
	}
	return err
}

// AnalyzeError classifies a provider error and suggests a cooldown.
func AnalyzeError(err error) ProviderIssue {
	var (
		httpErr *HTTPError
		rpcErr  *RPCError
		netErr  net.Error
	)
	switch {
	case retry.IsPermanent(err), errors.Is(err, context.Canceled):
		return ProviderIssue{Reason: "rejected", Permanent: true}
	case errors.As(err, &rpcErr):
		return ProviderIssue{Reason: "rpc_error", Permanent: true}
	case errors.As(err, &httpErr):
		switch {
		case httpErr.StatusCode == 429:
			return ProviderIssue{Reason: "rate_limit", Cooldown: 5 * time.Minute, MarkUnhealthy: true}
		case httpErr.StatusCode == 401, httpErr.StatusCode == 403:
			return ProviderIssue{Reason: "forbidden", Cooldown: 24 * time.Hour, MarkUnhealthy: true}
		case httpErr.StatusCode >= 500:
			return ProviderIssue{Reason: "server_error", Cooldown: 2 * time.Minute, MarkUnhealthy: true}
		}
		return ProviderIssue{Reason: "http_error"}
	case errors.Is(err, context.DeadlineExceeded):
		return ProviderIssue{Reason: "timeout", Cooldown: 3 * time.Minute, MarkUnhealthy: true}
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return ProviderIssue{Reason: "timeout", Cooldown: 3 * time.Minute, MarkUnhealthy: true}
		}
		return ProviderIssue{Reason: "connection_error", Cooldown: 2 * time.Minute, MarkUnhealthy: true}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []struct {
		patterns []string
		issue    ProviderIssue
	}{
		{[]string{"eof", "connection reset", "connection refused", "broken pipe"},
			ProviderIssue{Reason: "connection_error", Cooldown: 2 * time.Minute, MarkUnhealthy: true}},
		{[]string{"timeout", "deadline"},
			ProviderIssue{Reason: "timeout", Cooldown: 3 * time.Minute, MarkUnhealthy: true}},
	} {
		for _, p := range pattern.patterns {
			if strings.Contains(msg, p) {
				return pattern.issue
			}
		}
	}
	return ProviderIssue{Reason: "generic_error"}
}
