package engine

import (
	"log/slog"
	"time"

	"github.com/miradorstack/mirador-status/internal/metrics"
	"github.com/miradorstack/mirador-status/internal/models"
)

// Result is the output of one pipeline run.
type Result struct {
	Groups []models.Group
	// Services is the number of distinct service names in the registry.
	Services int
	// Resolutions has one entry per declared dependency, in scan order.
	Resolutions []Resolution
}

// Unresolved returns the declarations that contributed no dependency.
func (r Result) Unresolved() []Resolution {
	var out []Resolution
	for _, res := range r.Resolutions {
		if res.Unresolved() {
			out = append(out, res)
		}
	}
	return out
}

// Build converts raw service records into aggregated groups. It is pure and
// deterministic: the same records and subdomain always give the same result.
// Records sharing a name collapse into one service; the last record wins but
// keeps the position of the first.
func Build(raw []models.RawService, subdomain string) Result {
	services := newOrderedMap[*models.Service]()
	for _, record := range raw {
		svc := BuildService(record, subdomain)
		services.Set(svc.Name, svc)
	}

	resolutions := resolveDependencies(services)
	groups := buildGroups(services)

	out := make([]models.Group, 0, groups.Len())
	groups.Each(func(_ string, g *models.Group) {
		AggregateGroup(g)
		out = append(out, *g)
	})

	return Result{
		Groups:      out,
		Services:    services.Len(),
		Resolutions: resolutions,
	}
}

// Pipeline runs Build for a fixed subdomain and reports on each run.
type Pipeline struct {
	logger    *slog.Logger
	subdomain string
}

// NewPipeline constructs a pipeline linking services to subdomain.pagerduty.com.
func NewPipeline(logger *slog.Logger, subdomain string) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger, subdomain: subdomain}
}

// Subdomain returns the PagerDuty subdomain used for service links.
func (p *Pipeline) Subdomain() string {
	return p.subdomain
}

// Run builds the groups for raw.
func (p *Pipeline) Run(raw []models.RawService) Result {
	start := time.Now()
	res := Build(raw, p.subdomain)
	metrics.ObservePipeline(time.Since(start), metrics.OutcomeSuccess)

	for _, r := range res.Unresolved() {
		p.logger.Debug("dependency declaration unresolved",
			slog.String("service", r.Service),
			slog.String("declared", r.Declared),
			slog.Bool("invalid_pattern", r.Invalid),
		)
	}

	p.logger.Debug("groups built",
		slog.Int("records", len(raw)),
		slog.Int("services", res.Services),
		slog.Int("groups", len(res.Groups)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res
}
