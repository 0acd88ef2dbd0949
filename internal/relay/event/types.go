// Package event defines the messages exchanged between producers, consumers
// and the relay.
package event

import (
	"bytes"
	"encoding/json"
)

// Kind names a message type on either channel.
type Kind string

// Kinds that flow producer -> relay -> consumer. Only the first three mutate
// relay state; the rest are passed through.
const (
	KindSetDocument        Kind = "SetDocument"
	KindSetStyles          Kind = "SetStyles"
	KindSetInspectionRoot  Kind = "SetInspectionRoot"
	KindTargetConnected    Kind = "TargetConnected"
	KindTargetDisconnected Kind = "TargetDisconnected"
	KindError              Kind = "Error"
)

// NoTargetMessage is the Error message sent when a request cannot be routed.
const NoTargetMessage = "No available browser targets"

// Envelope is the wire form of every message: one envelope per frame.
type Envelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NodeID identifies a node in the inspected tree. Producers send numeric ids;
// string ids are accepted as well.
type NodeID string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *NodeID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = NodeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = NodeID(n.String())
	return nil
}

// RootID is an inspection root exactly as the producer encoded it. Raw is
// written back unchanged so replayed roots match the live event byte for
// byte; ID is its normalized form.
type RootID struct {
	ID  NodeID
	Raw json.RawMessage
}

// NewRootID returns a RootID for id encoded as a JSON string.
func NewRootID(id NodeID) RootID {
	raw, _ := json.Marshal(string(id))
	return RootID{ID: id, Raw: raw}
}

// UnmarshalJSON accepts a JSON number or string and keeps its bytes.
func (r *RootID) UnmarshalJSON(b []byte) error {
	var id NodeID
	if err := id.UnmarshalJSON(b); err != nil {
		return err
	}
	r.ID = id
	r.Raw = append(json.RawMessage(nil), bytes.TrimSpace(b)...)
	return nil
}

// MarshalJSON writes the original bytes.
func (r RootID) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return json.Marshal(string(r.ID))
	}
	return r.Raw, nil
}

// Node is an opaque node descriptor as reported by the producer.
type Node = json.RawMessage

// Style is an opaque style record (computed style plus parent computed
// style) as reported by the producer.
type Style = json.RawMessage

// DocumentPayload is the data of SetDocument.
type DocumentPayload struct {
	Nodes  map[NodeID]Node  `json:"nodes"`
	Styles map[NodeID]Style `json:"styles"`
}

// StylesPayload is the data of SetStyles.
type StylesPayload struct {
	Styles map[NodeID]Style `json:"styles"`
}

// RootPayload is the data of SetInspectionRoot. A nil NodeID clears the root.
type RootPayload struct {
	NodeID *RootID `json:"nodeId"`
}

// ErrorPayload is the data of Error.
type ErrorPayload struct {
	Message string `json:"message"`
}
