package client

import (
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// breakerSet holds one circuit breaker per upstream host.
type breakerSet struct {
	threshold  int64
	newBackOff func() backoff.BackOff
	breakers   map[string]*circuit.Breaker
	mu         sync.RWMutex
}

func newBreakerSet(threshold int64) *breakerSet {
	return &breakerSet{
		threshold:  threshold,
		newBackOff: defaultBreakerBackOff,
		breakers:   make(map[string]*circuit.Breaker),
	}
}

// defaultBreakerBackOff keeps a tripped host open for 30s, doubling up to 5m.
func defaultBreakerBackOff() backoff.BackOff {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()
	return expBackoff
}

// get returns or creates the circuit breaker for host.
func (s *breakerSet) get(host string) *circuit.Breaker {
	s.mu.RLock()
	breaker, exists := s.breakers[host]
	s.mu.RUnlock()

	if exists {
		return breaker
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if breaker, exists := s.breakers[host]; exists {
		return breaker
	}

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    s.newBackOff(),
		ShouldTrip: circuit.ThresholdTripFunc(s.threshold),
	})
	s.breakers[host] = breaker
	return breaker
}

// states reports "open" or "closed" per host, for diagnostics.
func (s *breakerSet) states() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make(map[string]string, len(s.breakers))
	for host, breaker := range s.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

// hostOf extracts the breaker key from a request URL.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}
