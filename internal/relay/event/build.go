package event

import (
	"encoding/json"
	"fmt"
)

// NewSetDocument builds the replay envelope for a newly joined consumer.
// Nil maps are sent as empty objects.
func NewSetDocument(nodes map[NodeID]Node, styles map[NodeID]Style) (Envelope, error) {
	if nodes == nil {
		nodes = map[NodeID]Node{}
	}
	if styles == nil {
		styles = map[NodeID]Style{}
	}
	return newEnvelope(KindSetDocument, DocumentPayload{Nodes: nodes, Styles: styles})
}

// NewSetInspectionRoot builds a SetInspectionRoot envelope carrying root's
// original encoding.
func NewSetInspectionRoot(root RootID) (Envelope, error) {
	return newEnvelope(KindSetInspectionRoot, RootPayload{NodeID: &root})
}

// NewError builds an Error envelope.
func NewError(message string) (Envelope, error) {
	return newEnvelope(KindError, ErrorPayload{Message: message})
}

// Presence returns TargetConnected or TargetDisconnected.
func Presence(connected bool) Envelope {
	if connected {
		return Envelope{Kind: KindTargetConnected}
	}
	return Envelope{Kind: KindTargetDisconnected}
}

func newEnvelope(kind Kind, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	return Envelope{Kind: kind, Data: data}, nil
}
