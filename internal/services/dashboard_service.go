package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/miradorstack/mirador-status/internal/engine"
	"github.com/miradorstack/mirador-status/internal/metrics"
	"github.com/miradorstack/mirador-status/internal/models"
	"github.com/miradorstack/mirador-status/internal/utils"
)

// ErrNoSnapshot is returned before the first successful refresh.
var ErrNoSnapshot = errors.New("no snapshot available yet")

// RecordSource supplies raw service records.
type RecordSource interface {
	Load(ctx context.Context) ([]models.RawService, error)
}

// HealthReporter receives serving states; *health.Server satisfies it.
type HealthReporter interface {
	SetServingStatus(service string, servingStatus healthpb.HealthCheckResponse_ServingStatus)
}

// Snapshot is the latest computed dashboard.
type Snapshot struct {
	Groups       []models.Group `json:"groups"`
	ServiceCount int            `json:"serviceCount"`
	Unresolved   int            `json:"unresolvedDependencies"`
	GeneratedAt  time.Time      `json:"generatedAt"`
}

// Stats summarises refresh activity.
type Stats struct {
	Refreshes     uint64    `json:"refreshes"`
	Failures      uint64    `json:"failures"`
	LatencyP50Ms  float64   `json:"latencyP50Ms"`
	LatencyP95Ms  float64   `json:"latencyP95Ms"`
	LastRefreshAt time.Time `json:"lastRefreshAt"`
	LastError     string    `json:"lastError,omitempty"`
}

// DashboardService keeps the latest snapshot built from a record source.
type DashboardService struct {
	logger    *slog.Logger
	source    RecordSource
	pipeline  *engine.Pipeline
	health    HealthReporter
	latencies *utils.LatencyTracker
	now       func() time.Time

	// refreshMu serialises load-and-swap so an older load never replaces a
	// newer snapshot.
	refreshMu sync.Mutex

	mu        sync.RWMutex
	snapshot  *Snapshot
	published map[string]struct{}
	failures  uint64
	lastErr   error
	lastAt    time.Time
}

// NewDashboardService constructs the dashboard service. health may be nil.
func NewDashboardService(logger *slog.Logger, source RecordSource, pipeline *engine.Pipeline, health HealthReporter) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		logger:    logger,
		source:    source,
		pipeline:  pipeline,
		health:    health,
		latencies: utils.NewLatencyTracker(256),
		now:       time.Now,
		published: make(map[string]struct{}),
	}
}

// Refresh reloads the records and replaces the snapshot. On failure the
// previous snapshot stays in place. Concurrent calls run one at a time.
func (s *DashboardService) Refresh(ctx context.Context) error {
	if s.source == nil || s.pipeline == nil {
		return errors.New("dashboard service not configured")
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	records, err := s.source.Load(ctx)
	if err != nil {
		metrics.ObservePipeline(time.Since(start), metrics.OutcomeError)
		s.mu.Lock()
		s.failures++
		s.lastErr = err
		s.lastAt = s.now()
		s.mu.Unlock()
		s.logger.Error("refresh failed, keeping previous snapshot", slog.Any("error", err))
		return err
	}

	res := s.pipeline.Run(records)
	duration := time.Since(start)
	s.latencies.Observe(duration)

	unresolved := res.Unresolved()
	snap := &Snapshot{
		Groups:       res.Groups,
		ServiceCount: res.Services,
		Unresolved:   len(unresolved),
		GeneratedAt:  s.now().UTC(),
	}

	s.mu.Lock()
	s.snapshot = snap
	s.lastErr = nil
	s.lastAt = snap.GeneratedAt
	s.publishLocked(snap, unresolved)
	s.mu.Unlock()

	s.logger.Info("dashboard refreshed",
		slog.Int("services", snap.ServiceCount),
		slog.Int("groups", len(snap.Groups)),
		slog.Int("unresolved_dependencies", snap.Unresolved),
		slog.Duration("elapsed", duration),
	)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("refresh latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}
	return nil
}

// publishLocked pushes group states to the health reporter and metrics.
// Groups that disappeared since the last snapshot are reported unknown.
func (s *DashboardService) publishLocked(snap *Snapshot, unresolved []engine.Resolution) {
	states := make(map[string]bool, len(snap.Groups))
	current := make(map[string]struct{}, len(snap.Groups))
	for _, g := range snap.Groups {
		states[g.ID] = g.IsOnline
		current[g.ID] = struct{}{}
	}
	metrics.SetGroupOnline(states)

	var invalid int
	for _, r := range unresolved {
		if r.Invalid {
			invalid++
		}
	}
	metrics.SetUnresolvedDependencies(len(unresolved)-invalid, invalid)

	if s.health == nil {
		s.published = current
		return
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for id, online := range states {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if online {
			status = healthpb.HealthCheckResponse_SERVING
		}
		s.health.SetServingStatus(id, status)
	}
	for id := range s.published {
		if _, ok := current[id]; !ok {
			s.health.SetServingStatus(id, healthpb.HealthCheckResponse_SERVICE_UNKNOWN)
		}
	}
	s.published = current
}

// Snapshot returns the latest snapshot.
func (s *DashboardService) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return *s.snapshot, nil
}

// Group returns the group with the given id from the latest snapshot.
func (s *DashboardService) Group(id string) (models.Group, bool) {
	snap, err := s.Snapshot()
	if err != nil {
		return models.Group{}, false
	}
	for _, g := range snap.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.Group{}, false
}

// Transform builds groups for ad-hoc records without touching the snapshot.
func (s *DashboardService) Transform(records []models.RawService) engine.Result {
	return s.pipeline.Run(records)
}

// Stats returns refresh statistics.
func (s *DashboardService) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Refreshes:     s.latencies.Total(),
		Failures:      s.failures,
		LatencyP50Ms:  millis(s.latencies.Percentile(50)),
		LatencyP95Ms:  millis(s.latencies.Percentile(95)),
		LastRefreshAt: s.lastAt,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
