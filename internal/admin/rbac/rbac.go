// Package rbac maps staff roles onto the candidate-workspace capabilities
// they unlock.
package rbac

import "strings"

// Role is a staff access tier carried in the "role"/"roles" token claims.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleRecruiter   Role = "recruiter"
	RoleCoordinator Role = "coordinator"
	RoleViewer      Role = "viewer"
)

// Capability guards a route or an editable panel.
type Capability string

const (
	CapCandidatesView  Capability = "candidates.view"
	CapCandidatesEdit  Capability = "candidates.edit"
	CapPipelineStage   Capability = "pipeline.stage"
	CapTasksManage     Capability = "tasks.manage"
	CapActivityView    Capability = "activity.view"
	CapPipelineRefresh Capability = "pipeline.refresh"
)

// grants lists what each non-admin role may do. Admin holds every capability.
var grants = map[Role][]Capability{
	RoleRecruiter:   {CapCandidatesView, CapCandidatesEdit, CapPipelineStage, CapTasksManage, CapActivityView},
	RoleCoordinator: {CapCandidatesView, CapTasksManage, CapActivityView},
	RoleViewer:      {CapCandidatesView, CapActivityView},
}

var known = []Capability{CapCandidatesView, CapCandidatesEdit, CapPipelineStage, CapTasksManage, CapActivityView, CapPipelineRefresh}

// CapabilityForAttribute maps a candidate attribute to the capability needed to edit it.
func CapabilityForAttribute(attribute string) Capability {
	switch attribute {
	case "tasks":
		return CapTasksManage
	case "jobs":
		return CapPipelineStage
	default:
		return CapCandidatesEdit
	}
}

// ParseRole canonicalises a claim value. Unknown values report false.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if role == RoleAdmin {
		return role, true
	}
	_, ok := grants[role]
	return role, ok
}

// Set is the resolved capability set of one user.
type Set map[Capability]bool

// Resolve unions the capabilities of every recognised role.
func Resolve(roles []string) Set {
	set := make(Set, len(known))
	for _, raw := range roles {
		role, ok := ParseRole(raw)
		if !ok {
			continue
		}
		if role == RoleAdmin {
			for _, c := range known {
				set[c] = true
			}
			return set
		}
		for _, c := range grants[role] {
			set[c] = true
		}
	}
	return set
}

// HasCapability reports whether roles grant c. The empty capability is always granted.
func HasCapability(roles []string, c Capability) bool {
	if c == "" {
		return true
	}
	return Resolve(roles)[c]
}
