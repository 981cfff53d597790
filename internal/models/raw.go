package models

import (
	"encoding/json"
	"fmt"
)

// RawService is one service record as returned by the PagerDuty services API.
// Keys and values are kept exactly as decoded so unknown fields can be passed
// through to the dashboard.
type RawService map[string]any

// Raw record keys read by the service builder.
const (
	RawKeyName                  = "name"
	RawKeyStatus                = "status"
	RawKeyDescription           = "description"
	RawKeyServiceURL            = "service_url"
	RawKeyLastIncidentTimestamp = "last_incident_timestamp"
)

// String returns the value stored under key when it is a string, or "".
func (r RawService) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case fmt.Stringer:
		return s.String()
	default:
		return ""
	}
}

// Has reports whether key is present with a non-nil value.
func (r RawService) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}
