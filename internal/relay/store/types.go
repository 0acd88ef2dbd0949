// Package store provides the relay's shared snapshot of inspected state.
package store

import "github.com/bleikamp/ply/internal/relay/event"

// State is the last-known view of the inspected target.
type State struct {
	InspectionRoot *event.RootID                `json:"inspectionRoot"`
	Nodes          map[event.NodeID]event.Node  `json:"nodes"`
	Styles         map[event.NodeID]event.Style `json:"styles"`
}

// Stats summarizes the snapshot for logs and the debug API.
type Stats struct {
	Nodes     int  `json:"nodes"`
	Styles    int  `json:"styles"`
	Inspected bool `json:"inspected"`
}

func emptyState() State {
	return State{
		Nodes:  make(map[event.NodeID]event.Node),
		Styles: make(map[event.NodeID]event.Style),
	}
}
