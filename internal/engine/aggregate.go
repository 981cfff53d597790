package engine

import "github.com/miradorstack/mirador-status/internal/models"

// AggregateGroup rolls the members of g up into its status, incident time and
// dependency fields.
func AggregateGroup(g *models.Group) {
	members := g.Members()
	deps := newOrderedMap[*models.Service]()

	var worst *models.Service
	var earliest *int64
	for _, svc := range members {
		if !svc.IsOnline && svc.HasIncidentTime() {
			if earliest == nil || *svc.LastIncidentTime < *earliest {
				earliest = svc.LastIncidentTime
			}
		}
		// ties keep the member seen first
		if worst == nil || svc.StatusNumber > worst.StatusNumber {
			worst = svc
		}
		for _, dep := range svc.Dependencies {
			if _, seen := deps.Get(dep.Name); !seen {
				deps.Set(dep.Name, dep)
			}
		}
	}

	status := StatusDisabled
	if worst != nil {
		status = worst.Status
	}
	c := Classify(status)
	g.Status = c.Status
	g.StatusNumber = c.StatusNumber
	g.IsOnline = c.IsOnline

	g.LastIncidentTime = 0
	if earliest != nil {
		g.LastIncidentTime = *earliest
	}
	g.Dependencies = deps.Values()
}
