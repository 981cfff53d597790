package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should ignore duplicates: %v", err)
	}
}

func TestObservePipelineNormalisesOutcome(t *testing.T) {
	before := testutil.ToFloat64(pipelineRunsTotal.WithLabelValues(OutcomeSuccess))
	ObservePipeline(-time.Second, "weird")
	after := testutil.ToFloat64(pipelineRunsTotal.WithLabelValues(OutcomeSuccess))
	if after-before != 1 {
		t.Fatalf("expected unknown outcome to count as success, delta=%v", after-before)
	}
}

func TestSetUnresolvedDependenciesReplacesValues(t *testing.T) {
	SetUnresolvedDependencies(2, 1)
	SetUnresolvedDependencies(2, 1)
	if got := testutil.ToFloat64(unresolvedDependencies.WithLabelValues(ReasonNoMatch)); got != 2 {
		t.Fatalf("no_match: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(unresolvedDependencies.WithLabelValues(ReasonInvalidPattern)); got != 1 {
		t.Fatalf("invalid_pattern: got %v, want 1", got)
	}

	SetUnresolvedDependencies(0, 0)
	if got := testutil.ToFloat64(unresolvedDependencies.WithLabelValues(ReasonNoMatch)); got != 0 {
		t.Fatalf("no_match after clean snapshot: got %v, want 0", got)
	}
}

func TestSetGroupOnlineDropsStaleGroups(t *testing.T) {
	SetGroupOnline(map[string]bool{"core": false, "billing": true})
	if got := testutil.ToFloat64(groupOnline.WithLabelValues("billing")); got != 1 {
		t.Fatalf("billing: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(groupOnline.WithLabelValues("core")); got != 0 {
		t.Fatalf("core: got %v, want 0", got)
	}

	SetGroupOnline(map[string]bool{"billing": true})
	if n := testutil.CollectAndCount(groupOnline); n != 1 {
		t.Fatalf("expected stale group series to be removed, got %d series", n)
	}
}
