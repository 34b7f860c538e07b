package traverse

import (
	"fmt"
	"slices"
	"strings"
)

// GroupsExclusionRule excludes properties that share no group with the
// configured set. Properties without groups belong to DefaultGroup.
type GroupsExclusionRule struct {
	groups []string
	index  map[string]struct{}
}

// NewGroupsExclusionRule trims and de-duplicates groups, keeping the first
// occurrence order. It fails when no group name remains.
func NewGroupsExclusionRule(groups ...string) (*GroupsExclusionRule, error) {
	normalized := normalizeGroups(groups)
	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: got %d name(s)", ErrGroupsRequired, len(groups))
	}
	index := make(map[string]struct{}, len(normalized))
	for _, group := range normalized {
		index[group] = struct{}{}
	}
	return &GroupsExclusionRule{groups: normalized, index: index}, nil
}

// Groups returns a copy of the normalised groups.
func (r *GroupsExclusionRule) Groups() []string {
	return slices.Clone(r.groups)
}

// ShouldExclude implements ExclusionRule. Classes are never excluded by group.
func (r *GroupsExclusionRule) ShouldExclude(_ *ClassMetadata, property *PropertyMetadata, _ *Context) (bool, error) {
	if property == nil {
		return false, nil
	}
	groups := property.Groups
	if len(groups) == 0 {
		groups = []string{DefaultGroup}
	}
	for _, group := range groups {
		if _, ok := r.index[group]; ok {
			return false, nil
		}
	}
	return true, nil
}

func normalizeGroups(groups []string) []string {
	out := make([]string, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))
	for _, group := range groups {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		if _, ok := seen[group]; ok {
			continue
		}
		seen[group] = struct{}{}
		out = append(out, group)
	}
	return out
}
