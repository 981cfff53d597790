package engine

// Status labels reported by PagerDuty for a service.
const (
	StatusCritical    = "critical"
	StatusWarning     = "warning"
	StatusActive      = "active"
	StatusMaintenance = "maintenance"
	StatusDisabled    = "disabled"
)

// StatusUnknown is the ordinal of any label not in the ranking.
const StatusUnknown = -1

// offlineThreshold is the first ordinal treated as offline (warning).
const offlineThreshold = 3

var statusRanking = map[string]int{
	StatusCritical:    4,
	StatusWarning:     3,
	StatusActive:      2,
	StatusMaintenance: 1,
	StatusDisabled:    0,
}

// Classification holds the status fields injected into services and groups.
type Classification struct {
	Status       string
	StatusNumber int
	IsOnline     bool
}

// StatusNumber maps a status label to its severity ordinal; higher is worse.
func StatusNumber(status string) int {
	if n, ok := statusRanking[status]; ok {
		return n
	}
	return StatusUnknown
}

// IsOnline reports whether a severity ordinal counts as online. Unknown
// labels (-1) are online.
func IsOnline(statusNumber int) bool {
	return statusNumber < offlineThreshold
}

// Classify derives all status fields from a label.
func Classify(status string) Classification {
	n := StatusNumber(status)
	return Classification{
		Status:       status,
		StatusNumber: n,
		IsOnline:     IsOnline(n),
	}
}
