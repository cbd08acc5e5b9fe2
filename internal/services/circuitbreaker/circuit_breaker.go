// Package circuitbreaker guards optional downstream work (frame sinks) so a
// failing dependency is skipped instead of slowing every producer tick.
package circuitbreaker

import (
	"fmt"
	"sync"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "HalfOpen"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

type Config struct {
	FailureThreshold int
	SuccessThreshold int
	// Timeout is how long the breaker stays open before letting a probe through
	Timeout time.Duration
}

type LocalMetrics struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	RejectedRequests   int64
	CircuitOpens       int64
	CircuitCloses      int64
}

type CircuitBreaker struct {
	serviceName string
	config      Config
	now         func() time.Time

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	probeInFlight   bool
	metrics         LocalMetrics
}

// DefaultConfig suits a sink called once per frame
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Timeout:          5 * time.Second,
	}
}

func New(serviceName string) *CircuitBreaker {
	return NewWithConfig(serviceName, DefaultConfig())
}

func NewWithConfig(serviceName string, config Config) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	return &CircuitBreaker{
		serviceName: serviceName,
		config:      config,
		now:         time.Now,
		state:       Closed,
	}
}

// CanExecute reports whether the guarded call should run. While half-open
// only one probe is admitted at a time.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.metrics.TotalRequests++

	switch cb.state {
	case Closed:
		return true
	case Open:
		if cb.now().Sub(cb.lastFailureTime) > cb.config.Timeout {
			cb.transitionLocked(HalfOpen)
			cb.probeInFlight = true
			return true
		}
	case HalfOpen:
		if !cb.probeInFlight {
			cb.probeInFlight = true
			return true
		}
	}

	cb.metrics.RejectedRequests++
	return false
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.metrics.SuccessfulRequests++
	cb.failureCount = 0
	cb.probeInFlight = false

	if cb.state != HalfOpen {
		return
	}

	cb.successCount++
	if cb.successCount >= cb.config.SuccessThreshold {
		cb.transitionLocked(Closed)
		cb.metrics.CircuitCloses++
		fiberlog.Infof("CircuitBreaker: %s transitioned to Closed state after success", cb.serviceName)
		return
	}
	fiberlog.Infof("CircuitBreaker: %s recorded success in HalfOpen state", cb.serviceName)
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.metrics.FailedRequests++
	cb.failureCount++
	cb.lastFailureTime = cb.now()
	cb.probeInFlight = false

	shouldOpen := (cb.state == Closed && cb.failureCount >= cb.config.FailureThreshold) || cb.state == HalfOpen
	if !shouldOpen {
		fiberlog.Debugf("CircuitBreaker: %s recorded failure", cb.serviceName)
		return
	}

	cb.transitionLocked(Open)
	cb.metrics.CircuitOpens++
	fiberlog.Warnf("CircuitBreaker: %s transitioned to Open state after failure, pausing for %v",
		cb.serviceName, cb.config.Timeout)
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Metrics() LocalMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.metrics
}

func (cb *CircuitBreaker) transitionLocked(newState State) {
	if cb.state == newState {
		return
	}
	cb.state = newState
	cb.successCount = 0
	if newState != HalfOpen {
		cb.probeInFlight = false
	}
	fiberlog.Debugf("CircuitBreaker: %s transitioned to %s", cb.serviceName, newState)
}
