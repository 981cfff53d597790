package engine

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/miradorstack/mirador-status/internal/models"
)

func findGroup(t *testing.T, groups []models.Group, name string) models.Group {
	t.Helper()
	for _, g := range groups {
		if g.Name == name {
			return g
		}
	}
	t.Fatalf("group %q not found", name)
	return models.Group{}
}

func sampleRecords() []models.RawService {
	return []models.RawService{
		{
			"id":                      "P1",
			"name":                    "Core: API",
			"status":                  "critical",
			"description":             "[dashboard-primary] [dashboard-depends|Database, queue]",
			"service_url":             "/services/P1",
			"last_incident_timestamp": "2024-01-01T00:00:00Z",
		},
		{
			"id":          "P2",
			"name":        "Core: Site",
			"status":      "active",
			"description": "[dashboard-primary] [dashboard-depends|Database]",
			"service_url": "/services/P2",
		},
		{"id": "P3", "name": "Database", "status": "active", "service_url": "/services/P3"},
		{"id": "P4", "name": "Job Queue", "status": "warning", "service_url": "/services/P4"},
		{"id": "P5", "name": "Legacy", "status": "disabled", "service_url": "/services/P5"},
	}
}

func TestBuildScenarioSinglePrimaryService(t *testing.T) {
	res := Build([]models.RawService{{
		"name":                    "Core: API",
		"status":                  "critical",
		"description":             "[dashboard-primary]",
		"service_url":             "/x",
		"last_incident_timestamp": "2024-01-01T00:00:00Z",
	}}, "acme")

	if len(res.Groups) != 3 {
		t.Fatalf("expected catch-all groups plus Core, got %d groups", len(res.Groups))
	}
	core := findGroup(t, res.Groups, "Core")
	if len(core.Features) != 1 || core.Features[0].ProperName != "API" {
		t.Fatalf("unexpected features %+v", core.Features)
	}
	if core.NumberFailures != 1 {
		t.Fatalf("NumberFailures = %d, want 1", core.NumberFailures)
	}
	if core.Status != "critical" {
		t.Fatalf("Status = %q, want critical", core.Status)
	}
	if core.LastIncidentTime != 1704067200000 {
		t.Fatalf("LastIncidentTime = %d", core.LastIncidentTime)
	}

	for _, name := range []string{models.GroupOtherProducts, models.GroupOtherIssues} {
		g := findGroup(t, res.Groups, name)
		if g.Status != StatusDisabled || g.NumberFailures != 0 || g.LastIncidentTime != 0 || len(g.Dependencies) != 0 {
			t.Fatalf("empty group %q has unexpected aggregate %+v", name, g)
		}
	}
}

func TestBuildFullPipeline(t *testing.T) {
	res := Build(sampleRecords(), "acme")

	if res.Services != 5 {
		t.Fatalf("Services = %d, want 5", res.Services)
	}

	names := make([]string, 0, len(res.Groups))
	for _, g := range res.Groups {
		names = append(names, g.Name)
	}
	want := []string{models.GroupOtherProducts, models.GroupOtherIssues, "Core"}
	if len(names) != len(want) {
		t.Fatalf("groups = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("groups = %v, want %v", names, want)
		}
	}

	core := findGroup(t, res.Groups, "Core")
	if core.Site == nil || core.Site.ProperName != "Site" {
		t.Fatalf("Core site missing")
	}
	depNames := make([]string, 0)
	for _, d := range core.Dependencies {
		depNames = append(depNames, d.Name)
	}
	if len(depNames) != 2 || depNames[0] != "Database" || depNames[1] != "Job Queue" {
		t.Fatalf("Core dependencies = %v", depNames)
	}

	products := findGroup(t, res.Groups, models.GroupOtherProducts)
	if len(products.Features) != 2 || products.Status != StatusActive {
		t.Fatalf("Other Products = %d features, status %q", len(products.Features), products.Status)
	}
	issues := findGroup(t, res.Groups, models.GroupOtherIssues)
	if len(issues.Features) != 1 || issues.Features[0].Name != "Job Queue" || issues.NumberFailures != 1 {
		t.Fatalf("unexpected Other Issues %+v", issues)
	}
	if issues.LastIncidentTime != 0 {
		t.Fatalf("offline member without timestamp must not set an incident time")
	}

	if len(res.Resolutions) != 3 || len(res.Unresolved()) != 0 {
		t.Fatalf("unexpected resolutions %+v", res.Resolutions)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	first, err := json.Marshal(Build(sampleRecords(), "acme").Groups)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(Build(sampleRecords(), "acme").Groups)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("pipeline output differs between runs")
	}
}

func TestBuildIsDeterministicWithLenientTimestamps(t *testing.T) {
	records := func() []models.RawService {
		return []models.RawService{
			{"name": "Ops: Queue", "status": "critical", "description": "[dashboard-primary]", "last_incident_timestamp": "2024-01-02 03:04:05"},
			{"name": "Ops: Cron", "status": "warning", "description": "[dashboard-primary]", "last_incident_timestamp": "now"},
			{"name": "Ops: Mail", "status": "critical", "description": "[dashboard-primary]", "last_incident_timestamp": "ok"},
			{"name": "Ops: Site", "status": "warning", "description": "[dashboard-primary]", "last_incident_timestamp": "2 hours ago"},
		}
	}

	res := Build(records(), "acme")
	ops := findGroup(t, res.Groups, "Ops")
	if ops.LastIncidentTime != 1704164645000 {
		t.Fatalf("LastIncidentTime = %d, want the only parseable timestamp", ops.LastIncidentTime)
	}
	for _, svc := range ops.Members()[1:] {
		if svc.HasIncidentTime() {
			t.Fatalf("%s: expected no incident time, got %d", svc.Name, *svc.LastIncidentTime)
		}
		raw, err := json.Marshal(svc)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Contains(raw, []byte(`"lastIncidentTime":null`)) {
			t.Fatalf("%s: expected null incident time in %s", svc.Name, raw)
		}
	}

	first, err := json.Marshal(res.Groups)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	second, err := json.Marshal(Build(records(), "acme").Groups)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("pipeline output differs between runs:\n%s\n%s", first, second)
	}
}

func TestBuildDuplicateNamesLastRecordWins(t *testing.T) {
	res := Build([]models.RawService{
		{"name": "Dup", "status": "active"},
		{"name": "Other", "status": "active"},
		{"name": "Dup", "status": "critical"},
	}, "acme")

	if res.Services != 2 {
		t.Fatalf("Services = %d, want 2", res.Services)
	}
	issues := findGroup(t, res.Groups, models.GroupOtherIssues)
	if len(issues.Features) != 1 || issues.Features[0].Name != "Dup" {
		t.Fatalf("expected the later Dup record to be kept")
	}
}

func TestBuildCyclicDependenciesEncode(t *testing.T) {
	res := Build([]models.RawService{
		{"name": "A", "status": "active", "description": "[dashboard-depends|B]"},
		{"name": "B", "status": "active", "description": "[dashboard-depends|A]"},
	}, "acme")

	if _, err := json.Marshal(res.Groups); err != nil {
		t.Fatalf("cyclic graphs must encode: %v", err)
	}
}

func TestPipelineRunLogsUnresolved(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewPipeline(logger, "acme")

	res := p.Run([]models.RawService{
		{"name": "A", "status": "active", "description": "[dashboard-depends|nothing-here]"},
	})

	if len(res.Unresolved()) != 1 {
		t.Fatalf("expected one unresolved declaration")
	}
	if !bytes.Contains(buf.Bytes(), []byte("nothing-here")) {
		t.Fatalf("expected unresolved declaration to be logged, got %s", buf.String())
	}
	if p.Subdomain() != "acme" {
		t.Fatalf("unexpected subdomain %q", p.Subdomain())
	}
}
