// Package health backs the /livez and /readyz endpoints of the API server.
//
// Probes run on a shared background ticker. A probe only flips to unhealthy
// after several consecutive failures and recovers after a consecutive pass,
// so one slow database ping does not pull the server out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Thresholds before a probe changes state.
const (
	failAfter = 3
	okAfter   = 1
)

// probe wraps a CheckFunc with flap damping.
//
// tick is only ever called from the Service ticker goroutine, so the fails
// and oks counters need no locking. state and lastErr are read by HTTP
// handlers from arbitrary goroutines and use atomics.
type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	state   atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func newProbe(name string, timeout time.Duration, fn CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, fn: fn}
	p.state.Store(true) // healthy until proven otherwise
	return p
}

func (p *probe) healthy() bool {
	return p.state.Load()
}

func (p *probe) err() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

// tick runs the probe once and applies the thresholds.
func (p *probe) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.oks = 0
		if p.fails++; p.fails >= failAfter {
			p.state.Store(false)
		}
		return
	}
	p.fails = 0
	if p.oks++; p.oks >= okAfter {
		p.state.Store(true)
	}
}

// Service aggregates liveness and readiness probes for the server.
type Service struct {
	accepting atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	stop      context.CancelFunc
}

// New returns a Service in the not-ready state. Call SetReady(true) once the
// server has finished wiring.
func New() *Service {
	return &Service{}
}

// AddLiveness registers a probe behind /livez. Liveness failures mean the
// process itself is broken (leaked goroutines, runaway GC).
func (s *Service) AddLiveness(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, newProbe(name, timeout, fn))
}

// AddReadiness registers a probe behind /readyz. Readiness failures mean a
// dependency the request path needs is down, typically the database.
func (s *Service) AddReadiness(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, newProbe(name, timeout, fn))
}

// Start runs every registered probe once and then again on each interval
// tick, all from a single goroutine, until Stop or context cancellation.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.stop = cancel
	probes := make([]*probe, 0, len(s.liveness)+len(s.readiness))
	probes = append(probes, s.liveness...)
	probes = append(probes, s.readiness...)
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			for _, p := range probes {
				p.tick(ctx)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the probe goroutine. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// SetReady flips the manual readiness gate. The shutdown path sets it to
// false first so the load balancer drains the pod before the listener closes.
func (s *Service) SetReady(ready bool) {
	s.accepting.Store(ready)
}

// IsReady reports whether the gate is open and every readiness probe passes.
func (s *Service) IsReady() bool {
	if !s.accepting.Load() {
		return false
	}

	s.mu.RLock()
	probes := s.readiness
	s.mu.RUnlock()

	for _, p := range probes {
		if !p.healthy() {
			return false
		}
	}
	return true
}

// probeReport is the JSON body served on /livez and /readyz.
type probeReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveHandler serves /livez: 200 while every liveness probe passes, 503 with
// the failing probes otherwise.
func (s *Service) LiveHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	probes := make([]*probe, len(s.liveness))
	copy(probes, s.liveness)
	s.mu.RUnlock()

	writeReport(w, failures(probes))
}

// ReadyHandler serves /readyz: 200 only when the manual gate is open and
// every readiness probe passes.
func (s *Service) ReadyHandler(w http.ResponseWriter, _ *http.Request) {
	accepting := s.accepting.Load()

	s.mu.RLock()
	probes := make([]*probe, len(s.readiness))
	copy(probes, s.readiness)
	s.mu.RUnlock()

	failed := failures(probes)
	if !accepting {
		failed["_gate"] = "server is not accepting traffic"
	}
	writeReport(w, failed)
}

func failures(probes []*probe) map[string]string {
	failed := make(map[string]string)
	for _, p := range probes {
		if p.healthy() {
			continue
		}
		if err := p.err(); err != nil {
			failed[p.name] = err.Error()
		} else {
			failed[p.name] = "probe is unhealthy"
		}
	}
	return failed
}

func writeReport(w http.ResponseWriter, failed map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	report := probeReport{Status: "ok"}
	code := http.StatusOK
	if len(failed) > 0 {
		report.Status = "unhealthy"
		report.Checks = failed
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}
