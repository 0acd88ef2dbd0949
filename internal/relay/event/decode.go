package event

import (
	"encoding/json"

	"github.com/bleikamp/ply/errors"
)

// Incoming is the closed set of decoded producer events. Only the types in
// this package implement it.
type Incoming interface {
	Kind() Kind
	incoming()
}

// SetDocument replaces the node graph and styles wholesale.
type SetDocument struct {
	Nodes  map[NodeID]Node
	Styles map[NodeID]Style
}

// SetStyles merges styles into the existing set.
type SetStyles struct {
	Styles map[NodeID]Style
}

// SetInspectionRoot replaces the inspection root; nil clears it.
type SetInspectionRoot struct {
	Root *RootID
}

// Passthrough is any kind that does not touch relay state.
type Passthrough struct {
	K Kind
}

func (SetDocument) Kind() Kind       { return KindSetDocument }
func (SetStyles) Kind() Kind         { return KindSetStyles }
func (SetInspectionRoot) Kind() Kind { return KindSetInspectionRoot }
func (p Passthrough) Kind() Kind     { return p.K }

func (SetDocument) incoming()       {}
func (SetStyles) incoming()         {}
func (SetInspectionRoot) incoming() {}
func (Passthrough) incoming()       {}

// Decode maps an envelope onto the Incoming union. Unrecognized kinds become
// Passthrough without error.
func Decode(env Envelope) (Incoming, error) {
	switch env.Kind {
	case KindSetDocument:
		var p DocumentPayload
		if err := unmarshalData(env.Data, &p); err != nil {
			return nil, errors.InvalidEvent(string(env.Kind), err)
		}
		return SetDocument{Nodes: p.Nodes, Styles: p.Styles}, nil
	case KindSetStyles:
		var p StylesPayload
		if err := unmarshalData(env.Data, &p); err != nil {
			return nil, errors.InvalidEvent(string(env.Kind), err)
		}
		return SetStyles{Styles: p.Styles}, nil
	case KindSetInspectionRoot:
		var p RootPayload
		if err := unmarshalData(env.Data, &p); err != nil {
			return nil, errors.InvalidEvent(string(env.Kind), err)
		}
		return SetInspectionRoot{Root: p.NodeID}, nil
	default:
		return Passthrough{K: env.Kind}, nil
	}
}

func unmarshalData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
