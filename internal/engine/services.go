package engine

import (
	"strings"

	"github.com/miradorstack/mirador-status/internal/models"
	"github.com/miradorstack/mirador-status/internal/utils"
)

// Description markers understood by the dashboard.
const (
	PrimaryMarker    = "[dashboard-primary]"
	DependsPrefix    = "[dashboard-depends|"
	siteProperName   = "Site"
	serverProperName = "Server"
)

// derivedKeys are the JSON names the builder owns; raw fields with these names
// are not passed through.
var derivedKeys = map[string]struct{}{
	"name":             {},
	"properName":       {},
	"groupName":        {},
	"status":           {},
	"statusNumber":     {},
	"isOnline":         {},
	"lastIncidentTime": {},
	"description":      {},
	"link":             {},
	"isSiteOrServer":   {},
	"dependencies":     {},
}

// BuildService normalises one raw record. Dependencies are left empty; they
// are resolved once the whole registry exists.
func BuildService(raw models.RawService, subdomain string) *models.Service {
	name := raw.String(models.RawKeyName)
	description := raw.String(models.RawKeyDescription)
	status := Classify(raw.String(models.RawKeyStatus))

	svc := &models.Service{
		Name:             name,
		Status:           status.Status,
		StatusNumber:     status.StatusNumber,
		IsOnline:         status.IsOnline,
		LastIncidentTime: utils.ParseIncidentTime(raw.String(models.RawKeyLastIncidentTimestamp)),
		Description:      description,
		Link:             ServiceLink(subdomain, raw.String(models.RawKeyServiceURL)),
		Dependencies:     []*models.Service{},
		Extra:            passthrough(raw),
	}
	svc.GroupName, svc.ProperName = splitServiceName(name, description, status.IsOnline)
	svc.IsSiteOrServer = svc.ProperName == siteProperName || svc.ProperName == serverProperName
	return svc
}

// ServiceLink builds the PagerDuty URL for a service path.
func ServiceLink(subdomain, serviceURL string) string {
	return "https://" + subdomain + ".pagerduty.com" + serviceURL
}

// IsPrimary reports whether a description carries the primary marker.
func IsPrimary(description string) bool {
	return strings.Contains(description, PrimaryMarker)
}

// splitServiceName returns the group and display name of a service. Only
// primary services named "<group>:<service>" get their own group; the split
// happens at the first colon.
func splitServiceName(name, description string, online bool) (group, proper string) {
	if IsPrimary(description) {
		if prefix, suffix, ok := strings.Cut(name, ":"); ok {
			return strings.TrimSpace(prefix), strings.TrimSpace(suffix)
		}
	}
	if online {
		return models.GroupOtherProducts, name
	}
	return models.GroupOtherIssues, name
}

func passthrough(raw models.RawService) map[string]any {
	extra := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, derived := derivedKeys[k]; derived {
			continue
		}
		extra[k] = v
	}
	return extra
}
