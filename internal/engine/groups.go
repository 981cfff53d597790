package engine

import (
	"strings"

	"github.com/miradorstack/mirador-status/internal/models"
)

// buildGroups partitions services into groups. The two catch-all groups are
// always present and come first; other groups follow in first-use order.
func buildGroups(services *orderedMap[*models.Service]) *orderedMap[*models.Group] {
	groups := newOrderedMap[*models.Group]()
	groups.Set(models.GroupOtherProducts, models.NewGroup(models.GroupOtherProducts))
	groups.Set(models.GroupOtherIssues, models.NewGroup(models.GroupOtherIssues))

	services.Each(func(_ string, svc *models.Service) {
		addServiceToGroup(svc, groups)
	})
	return groups
}

func addServiceToGroup(svc *models.Service, groups *orderedMap[*models.Group]) {
	group, ok := groups.Get(svc.GroupName)
	if !ok {
		group = models.NewGroup(svc.GroupName)
		groups.Set(svc.GroupName, group)
	}

	if svc.IsSiteOrServer {
		// last write wins when a group declares the same slot twice
		switch strings.ToLower(svc.ProperName) {
		case "site":
			group.Site = svc
		case "server":
			group.Server = svc
		}
	} else {
		group.Features = append(group.Features, svc)
	}

	if !svc.IsOnline {
		group.NumberFailures++
	}
}
