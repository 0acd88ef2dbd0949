// Package registry tracks live connections per group.
package registry

import (
	"sort"

	"github.com/bleikamp/ply/errors"
)

// Group is one of the two connection sets.
type Group string

const (
	Producer Group = "producer"
	Consumer Group = "consumer"
)

// Counts holds the size of both groups.
type Counts struct {
	Producers int `json:"producers"`
	Consumers int `json:"consumers"`
}

// Change describes a membership transition. Counts are taken after the update.
type Change struct {
	Group     Group
	ID        string
	Connected bool
	Counts    Counts
}

// Registry owns the membership sets of both groups. Each member carries a
// handle of type T (the engine stores the outbound sink there).
//
// Registry is not safe for concurrent use; callers serialize access.
type Registry[T any] struct {
	groups map[Group]map[string]T
}

// New creates an empty Registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		groups: map[Group]map[string]T{
			Producer: make(map[string]T),
			Consumer: make(map[string]T),
		},
	}
}

// Register adds id to group. Registering an id that is already present is a
// DuplicateConnection fault and leaves the registry untouched.
func (r *Registry[T]) Register(group Group, id string, member T) (Change, error) {
	set := r.set(group)
	if _, ok := set[id]; ok {
		return Change{}, errors.DuplicateConnection(string(group), id)
	}
	set[id] = member
	return Change{Group: group, ID: id, Connected: true, Counts: r.Counts()}, nil
}

// Unregister removes id from group. Removing an absent id is an
// UnknownConnection fault.
func (r *Registry[T]) Unregister(group Group, id string) (Change, error) {
	set := r.set(group)
	if _, ok := set[id]; !ok {
		return Change{}, errors.UnknownConnection(string(group), id)
	}
	delete(set, id)
	return Change{Group: group, ID: id, Connected: false, Counts: r.Counts()}, nil
}

// Has reports whether id is registered in group.
func (r *Registry[T]) Has(group Group, id string) bool {
	_, ok := r.set(group)[id]
	return ok
}

// Get returns the member handle for id.
func (r *Registry[T]) Get(group Group, id string) (T, bool) {
	m, ok := r.set(group)[id]
	return m, ok
}

// Count returns the number of members in group.
func (r *Registry[T]) Count(group Group) int {
	return len(r.set(group))
}

// Counts returns the size of both groups.
func (r *Registry[T]) Counts() Counts {
	return Counts{
		Producers: len(r.groups[Producer]),
		Consumers: len(r.groups[Consumer]),
	}
}

// Members returns the handles in group ordered by id.
func (r *Registry[T]) Members(group Group) []T {
	set := r.set(group)
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]T, 0, len(ids))
	for _, id := range ids {
		result = append(result, set[id])
	}
	return result
}

func (r *Registry[T]) set(group Group) map[string]T {
	set, ok := r.groups[group]
	if !ok {
		// Only Producer and Consumer exist.
		panic("registry: unknown group " + string(group))
	}
	return set
}
