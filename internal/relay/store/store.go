package store

import (
	"github.com/bleikamp/ply/internal/relay/event"
)

// Store is the in-memory snapshot owned by the relay engine.
// It is not thread-safe: the engine applies events one at a time.
type Store struct {
	state State
}

// New creates an empty Store.
func New() *Store {
	return &Store{state: emptyState()}
}

// Apply folds an accepted producer event into the snapshot and reports
// whether anything changed.
func (s *Store) Apply(in event.Incoming) bool {
	switch e := in.(type) {
	case event.SetDocument:
		s.state.Nodes = copyMap(e.Nodes)
		s.state.Styles = copyMap(e.Styles)
		return true
	case event.SetStyles:
		// Merge only; entries for nodes that disappeared are kept.
		for id, style := range e.Styles {
			s.state.Styles[id] = style
		}
		return len(e.Styles) > 0
	case event.SetInspectionRoot:
		if e.Root == nil {
			s.state.InspectionRoot = nil
		} else {
			root := copyRoot(*e.Root)
			s.state.InspectionRoot = &root
		}
		return true
	default:
		return false
	}
}

// Snapshot returns a copy of the current state that the caller may keep.
func (s *Store) Snapshot() State {
	snap := State{
		Nodes:  copyMap(s.state.Nodes),
		Styles: copyMap(s.state.Styles),
	}
	if s.state.InspectionRoot != nil {
		root := copyRoot(*s.state.InspectionRoot)
		snap.InspectionRoot = &root
	}
	return snap
}

// Reset restores the empty initial state.
func (s *Store) Reset() {
	s.state = emptyState()
}

// Stats returns node and style counts.
func (s *Store) Stats() Stats {
	return Stats{
		Nodes:     len(s.state.Nodes),
		Styles:    len(s.state.Styles),
		Inspected: s.state.InspectionRoot != nil,
	}
}

func copyMap[V any](m map[event.NodeID]V) map[event.NodeID]V {
	out := make(map[event.NodeID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyRoot(r event.RootID) event.RootID {
	return event.RootID{ID: r.ID, Raw: append([]byte(nil), r.Raw...)}
}
