package domain

import "sort"

// GroupMember pairs an install id with its normalized descriptor.
type GroupMember struct {
	ID         InstallID
	Descriptor Descriptor
}

// Group is the unit of resolution: every member must resolve against the
// same pinned input revision.
type Group struct {
	Name    GroupName
	Members []GroupMember
}

// Descriptor returns the member descriptor for id, or nil.
func (g *Group) Descriptor(id InstallID) *Descriptor {
	for i := range g.Members {
		if g.Members[i].ID == id {
			return &g.Members[i].Descriptor
		}
	}
	return nil
}

// Has reports whether id is a member of the group.
func (g *Group) Has(id InstallID) bool { return g.Descriptor(id) != nil }

// GroupDescriptors buckets descriptors by group name. Descriptors without
// a group land in the default bucket, together with any that name the
// default group explicitly. Members are ordered by install id and groups
// by name so that iteration order is deterministic.
func GroupDescriptors(descriptors map[InstallID]Descriptor) []Group {
	buckets := make(map[GroupName][]GroupMember)
	for id, desc := range descriptors {
		name := desc.Group
		if name == "" {
			name = DefaultGroup
		}
		buckets[name] = append(buckets[name], GroupMember{ID: id, Descriptor: desc})
	}

	groups := make([]Group, 0, len(buckets))
	for name, members := range buckets {
		sort.Slice(members, func(i, j int) bool {
			return members[i].ID < members[j].ID
		})
		groups = append(groups, Group{Name: name, Members: members})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Name < groups[j].Name
	})
	return groups
}
