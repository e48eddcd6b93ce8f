package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// rank orders statuses from best to worst.
func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	}
	return 2
}

type CheckResult struct {
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	Message    string    `json:"message,omitempty"`
	DurationMs float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Backend   string    `json:"backend,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type Checker func(ctx context.Context) CheckResult

// Service answers liveness from process state and readiness from the
// registered dependency checks.
type Service struct {
	started time.Time
	version string
	backend string
	timeout time.Duration
	log     *zap.Logger

	mu       sync.RWMutex
	checkers map[string]Checker
}

func NewService(version, backend string, log *zap.Logger) *Service {
	return &Service{
		started:  time.Now(),
		version:  version,
		backend:  backend,
		timeout:  5 * time.Second,
		log:      log,
		checkers: make(map[string]Checker),
	}
}

func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	s.checkers[name] = checker
	s.mu.Unlock()
	s.log.Info("Registered health checker", zap.String("name", name))
}

func (s *Service) Health(context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Backend:   s.backend,
		Uptime:    time.Since(s.started).Truncate(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// Ready runs every checker concurrently, each under its own timeout. The
// overall status is the worst one seen; only unhealthy makes it not ready.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	checkers := make([]Checker, len(names))
	sort.Strings(names)
	for i, name := range names {
		checkers[i] = s.checkers[name]
	}
	s.mu.RUnlock()

	results := make([]CheckResult, len(names))
	var g errgroup.Group
	for i := range names {
		i := i
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			results[i] = checkers[i](checkCtx)
			results[i].Name = names[i]
			return nil
		})
	}
	_ = g.Wait()

	resp := &ReadyResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckResult, len(results)),
	}
	for _, r := range results {
		resp.Checks[r.Name] = r
		if r.Status.rank() > resp.Status.rank() {
			resp.Status = r.Status
		}
	}
	resp.Ready = resp.Status != StatusUnhealthy
	return resp
}

func run(ctx context.Context, name string, check func(ctx context.Context) error, failed Status) (CheckResult, error) {
	start := time.Now()
	err := check(ctx)
	r := CheckResult{
		Name:       name,
		Status:     StatusHealthy,
		Message:    "ok",
		DurationMs: float64(time.Since(start).Microseconds()) / 1000,
		Timestamp:  start,
	}
	if err != nil {
		r.Status = failed
		r.Message = err.Error()
	}
	return r, err
}

// PingChecker marks the dependency unhealthy when ping fails. Used for the
// document store, without which no page can be served.
func PingChecker(name string, ping func(ctx context.Context) error, log *zap.Logger) Checker {
	return func(ctx context.Context) CheckResult {
		r, err := run(ctx, name, ping, StatusUnhealthy)
		if err != nil {
			r.Message = fmt.Sprintf("ping failed: %v", err)
			log.Warn("Health check failed", zap.String("name", name), zap.Error(err))
		}
		return r
	}
}

// DegradedChecker reports degraded instead of unhealthy, for dependencies the
// read model can serve without, such as the cache.
func DegradedChecker(name string, check func(ctx context.Context) error) Checker {
	return func(ctx context.Context) CheckResult {
		r, _ := run(ctx, name, check, StatusDegraded)
		return r
	}
}
