package models

import (
	"encoding/json"
)

// Service is a normalised monitoring entity derived from one raw record.
type Service struct {
	// Name is the raw record name and the key services are registered under.
	Name       string
	ProperName string
	GroupName  string

	Status       string
	StatusNumber int
	IsOnline     bool

	// LastIncidentTime is milliseconds since the Unix epoch, or nil when the
	// record carried no parseable incident timestamp.
	LastIncidentTime *int64

	Description    string
	Link           string
	IsSiteOrServer bool

	// Dependencies is populated once every service of a run has been built.
	Dependencies []*Service

	// Extra holds raw fields that are not derived by the builder.
	Extra map[string]any
}

// HasIncidentTime reports whether the service carries a known incident timestamp.
func (s *Service) HasIncidentTime() bool {
	return s != nil && s.LastIncidentTime != nil
}

// DependencyNames returns the names of the resolved dependencies in order.
func (s *Service) DependencyNames() []string {
	names := make([]string, 0, len(s.Dependencies))
	for _, dep := range s.Dependencies {
		names = append(names, dep.Name)
	}
	return names
}

// ServiceRef is the non-recursive form a service takes when it is listed as a
// dependency. Dependency graphs may be cyclic.
type ServiceRef struct {
	Name       string `json:"name"`
	ProperName string `json:"properName"`
	GroupName  string `json:"groupName"`
	Status     string `json:"status"`
	IsOnline   bool   `json:"isOnline"`
	Link       string `json:"link"`
}

// Ref returns the dependency summary of s.
func (s *Service) Ref() ServiceRef {
	return ServiceRef{
		Name:       s.Name,
		ProperName: s.ProperName,
		GroupName:  s.GroupName,
		Status:     s.Status,
		IsOnline:   s.IsOnline,
		Link:       s.Link,
	}
}

func refs(services []*Service) []ServiceRef {
	out := make([]ServiceRef, 0, len(services))
	for _, s := range services {
		out = append(out, s.Ref())
	}
	return out
}

// Fields returns the derived fields of s keyed by their JSON names.
func (s *Service) Fields() map[string]any {
	var incident any
	if s.LastIncidentTime != nil {
		incident = *s.LastIncidentTime
	}
	return map[string]any{
		"name":             s.Name,
		"properName":       s.ProperName,
		"groupName":        s.GroupName,
		"status":           s.Status,
		"statusNumber":     s.StatusNumber,
		"isOnline":         s.IsOnline,
		"lastIncidentTime": incident,
		"description":      s.Description,
		"link":             s.Link,
		"isSiteOrServer":   s.IsSiteOrServer,
		"dependencies":     refs(s.Dependencies),
	}
}

// MarshalJSON merges passthrough fields with the derived ones. Derived fields
// win on key collision.
func (s *Service) MarshalJSON() ([]byte, error) {
	derived := s.Fields()
	merged := make(map[string]any, len(s.Extra)+len(derived))
	for k, v := range s.Extra {
		merged[k] = v
	}
	for k, v := range derived {
		merged[k] = v
	}
	return json.Marshal(merged)
}
