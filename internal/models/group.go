package models

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Names of the catch-all groups that every run produces.
const (
	GroupOtherProducts = "Other Products"
	GroupOtherIssues   = "Other Issues"
)

// Group is a named cluster of services rolled up to one representative status.
type Group struct {
	Name     string     `json:"name"`
	ID       string     `json:"id"`
	Features []*Service `json:"features"`
	Site     *Service   `json:"site"`
	Server   *Service   `json:"server"`

	NumberFailures int  `json:"numberFailures"`
	IsOtherGroup   bool `json:"isOtherGroup"`

	Status       string `json:"status"`
	StatusNumber int    `json:"statusNumber"`
	IsOnline     bool   `json:"isOnline"`

	// LastIncidentTime is the earliest incident time among offline members in
	// milliseconds since the Unix epoch, or 0 when no member is offline.
	LastIncidentTime int64 `json:"lastIncidentTime"`

	Dependencies []*Service `json:"-"`
}

// NewGroup returns an empty group named name.
func NewGroup(name string) *Group {
	return &Group{
		Name:         name,
		ID:           GroupID(name),
		Features:     []*Service{},
		IsOtherGroup: IsOtherGroup(name),
		Dependencies: []*Service{},
	}
}

// GroupID lowercases name and replaces every whitespace rune with a hyphen.
func GroupID(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, strings.ToLower(name))
}

// IsOtherGroup reports whether name is one of the catch-all groups.
func IsOtherGroup(name string) bool {
	return name == GroupOtherProducts || name == GroupOtherIssues
}

// Members returns the features followed by the site and server, when present.
func (g *Group) Members() []*Service {
	members := make([]*Service, 0, len(g.Features)+2)
	members = append(members, g.Features...)
	if g.Site != nil {
		members = append(members, g.Site)
	}
	if g.Server != nil {
		members = append(members, g.Server)
	}
	return members
}

// DependencyRefs returns the group dependencies in their JSON form.
func (g *Group) DependencyRefs() []ServiceRef {
	return refs(g.Dependencies)
}

// MarshalJSON encodes dependencies as summaries so cyclic graphs stay finite.
func (g Group) MarshalJSON() ([]byte, error) {
	type plain Group
	return json.Marshal(struct {
		plain
		Dependencies []ServiceRef `json:"dependencies"`
	}{plain: plain(g), Dependencies: g.DependencyRefs()})
}
