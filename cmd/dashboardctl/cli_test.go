package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecords = `{"services": [
	{"id": "P1", "name": "Shop: Checkout", "status": "critical",
	 "description": "[dashboard-primary] [dashboard-depends|Payments, ^ledger, (oops]",
	 "service_url": "/services/P1", "last_incident_timestamp": "2024-01-02T03:04:05Z"},
	{"id": "P2", "name": "Shop: Site", "status": "active", "description": "[dashboard-primary]", "service_url": "/services/P2"},
	{"id": "P3", "name": "Payments", "status": "active", "service_url": "/services/P3"},
	{"id": "P4", "name": "Legacy queue", "status": "warning", "service_url": "/services/P4"}
]}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cli := &Cli{}
	cmd := cli.rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeRecords(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRecords), 0o600))
	return path
}

func TestGroupsCommandFromFile(t *testing.T) {
	out, err := execute(t, "", "groups", "--input", writeRecords(t), "--subdomain", "acme", "--pretty")
	require.NoError(t, err)

	var groups []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 3)

	names := []string{}
	for _, g := range groups {
		names = append(names, g["name"].(string))
	}
	assert.Equal(t, []string{"Other Products", "Other Issues", "Shop"}, names)

	shop := groups[2]
	assert.Equal(t, "critical", shop["status"])
	assert.Equal(t, false, shop["isOnline"])
	assert.Equal(t, float64(1), shop["numberFailures"])
	assert.NotNil(t, shop["site"])

	deps := shop["dependencies"].([]any)
	require.Len(t, deps, 1)
	assert.Equal(t, "Payments", deps[0].(map[string]any)["name"])
	assert.Contains(t, out, "\n  ")
}

func TestGroupsCommandFromStdin(t *testing.T) {
	out, err := execute(t, sampleRecords, "groups", "--subdomain", "acme")
	require.NoError(t, err)
	assert.Contains(t, out, `"link":"https://acme.pagerduty.com/services/P3"`)
}

func TestGroupsCommandRequiresSubdomain(t *testing.T) {
	t.Setenv("MIRADOR_STATUS_PAGERDUTY_SUBDOMAIN", "")
	_, err := execute(t, sampleRecords, "groups")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subdomain")
}

func TestGroupsCommandBadInput(t *testing.T) {
	_, err := execute(t, `{"services": [`, "groups", "--subdomain", "acme")
	assert.Error(t, err)

	_, err = execute(t, "", "groups", "--subdomain", "acme", "--input", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDepsCommand(t *testing.T) {
	out, err := execute(t, "", "deps", "--input", writeRecords(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "SERVICE")
	assert.Contains(t, lines[1], "exact: Payments")
	assert.Contains(t, lines[2], "unresolved")
	assert.Contains(t, lines[3], "invalid pattern")
}

func TestDepsCommandUnresolvedOnly(t *testing.T) {
	out, err := execute(t, "", "deps", "--unresolved", "--input", writeRecords(t))
	require.NoError(t, err)

	assert.NotContains(t, out, "exact:")
	assert.Contains(t, out, "^ledger")
	assert.Contains(t, out, "(oops")
}
