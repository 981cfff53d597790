package engine

import (
	"regexp"
	"strings"

	"github.com/miradorstack/mirador-status/internal/models"
)

var dependsPattern = regexp.MustCompile(`\[dashboard-depends\|(.*)]`)

// Resolution records how one declared dependency name was resolved.
type Resolution struct {
	// Service is the name of the declaring service.
	Service  string
	Declared string
	// Matched lists the registry names the declaration resolved to.
	Matched []string
	// Exact is set when Declared is itself a registry key.
	Exact bool
	// Invalid is set when Declared could not be compiled as a pattern.
	Invalid bool
}

// Unresolved reports whether the declaration contributed no dependency.
func (r Resolution) Unresolved() bool {
	return len(r.Matched) == 0
}

// DeclaredDependencies extracts the dependency names from a description. Only
// the first annotation is read; empty names are dropped.
func DeclaredDependencies(description string) []string {
	m := dependsPattern.FindStringSubmatch(description)
	if m == nil {
		return nil
	}
	parts := strings.Split(m[1], ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// resolveDependencies fills in the dependencies of every registered service and
// returns one Resolution per declaration. It never fails: declarations that
// match nothing, or are not valid patterns, contribute no dependencies.
func resolveDependencies(services *orderedMap[*models.Service]) []Resolution {
	var resolutions []Resolution
	services.Each(func(_ string, svc *models.Service) {
		deps := newOrderedMap[*models.Service]()
		for _, declared := range DeclaredDependencies(svc.Description) {
			res := resolveDeclaration(declared, services)
			res.Service = svc.Name
			for _, name := range res.Matched {
				dep, _ := services.Get(name)
				deps.Set(name, dep)
			}
			resolutions = append(resolutions, res)
		}
		svc.Dependencies = deps.Values()
	})
	return resolutions
}

func resolveDeclaration(declared string, services *orderedMap[*models.Service]) Resolution {
	res := Resolution{Declared: declared}
	if _, ok := services.Get(declared); ok {
		res.Exact = true
		res.Matched = []string{declared}
		return res
	}
	pattern, ok := compileDependencyPattern(declared)
	if !ok {
		res.Invalid = true
		return res
	}
	for _, name := range services.Keys() {
		if pattern.MatchString(name) {
			res.Matched = append(res.Matched, name)
		}
	}
	return res
}

// compileDependencyPattern compiles a declared name as a case-insensitive
// pattern. ok is false when the name is not a valid expression.
func compileDependencyPattern(declared string) (*regexp.Regexp, bool) {
	pattern, err := regexp.Compile("(?i)" + declared)
	if err != nil {
		return nil, false
	}
	return pattern, true
}
