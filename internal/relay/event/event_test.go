package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bleikamp/ply/errors"
)

func TestRootIDAcceptsNumbersAndStrings(t *testing.T) {
	var p RootPayload
	require.NoError(t, json.Unmarshal([]byte(`{"nodeId": 7}`), &p))
	require.NotNil(t, p.NodeID)
	assert.Equal(t, NodeID("7"), p.NodeID.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"nodeId": "node-7"}`), &p))
	assert.Equal(t, NodeID("node-7"), p.NodeID.ID)

	p = RootPayload{}
	require.NoError(t, json.Unmarshal([]byte(`{"nodeId": null}`), &p))
	assert.Nil(t, p.NodeID)

	assert.Error(t, json.Unmarshal([]byte(`{"nodeId": {"a":1}}`), &p))
}

func TestRootIDKeepsOriginalEncoding(t *testing.T) {
	for _, raw := range []string{`7`, `"7"`, `"007"`, `"+5"`, `"-0"`, `1e2`, `-0`, `"node-7"`, `"\u0035"`} {
		t.Run(raw, func(t *testing.T) {
			var p RootPayload
			require.NoError(t, json.Unmarshal([]byte(`{"nodeId":`+raw+`}`), &p))

			env, err := NewSetInspectionRoot(*p.NodeID)
			require.NoError(t, err)
			assert.Equal(t, `{"nodeId":`+raw+`}`, string(env.Data))
		})
	}
}

func TestNewRootIDEncodesAsString(t *testing.T) {
	env, err := NewSetInspectionRoot(NewRootID("42"))
	require.NoError(t, err)
	assert.Equal(t, `{"nodeId":"42"}`, string(env.Data))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want Incoming
	}{
		{
			name: "set document",
			env:  Envelope{Kind: KindSetDocument, Data: json.RawMessage(`{"nodes":{"1":{"tag":"div"}},"styles":{}}`)},
			want: SetDocument{
				Nodes:  map[NodeID]Node{"1": Node(`{"tag":"div"}`)},
				Styles: map[NodeID]Style{},
			},
		},
		{
			name: "set styles",
			env:  Envelope{Kind: KindSetStyles, Data: json.RawMessage(`{"styles":{"5":{"computed":{}}}}`)},
			want: SetStyles{Styles: map[NodeID]Style{"5": Style(`{"computed":{}}`)}},
		},
		{
			name: "set inspection root",
			env:  Envelope{Kind: KindSetInspectionRoot, Data: json.RawMessage(`{"nodeId":3}`)},
			want: SetInspectionRoot{Root: &RootID{ID: "3", Raw: json.RawMessage(`3`)}},
		},
		{
			name: "presence passes through",
			env:  Envelope{Kind: KindTargetConnected},
			want: Passthrough{K: KindTargetConnected},
		},
		{
			name: "unknown kind passes through",
			env:  Envelope{Kind: "Highlight", Data: json.RawMessage(`{"nodeId":3}`)},
			want: Passthrough{K: "Highlight"},
		},
		{
			name: "missing data decodes to empty event",
			env:  Envelope{Kind: KindSetStyles},
			want: SetStyles{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.env.Kind, got.Kind())
		})
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	_, err := Decode(Envelope{Kind: KindSetDocument, Data: json.RawMessage(`{"nodes":[1,2]}`)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidEvent))
}

func TestBuilders(t *testing.T) {
	env, err := NewSetDocument(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, KindSetDocument, env.Kind)
	assert.JSONEq(t, `{"nodes":{},"styles":{}}`, string(env.Data))

	env, err = NewError(NoTargetMessage)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"No available browser targets"}`, string(env.Data))

	assert.Equal(t, KindTargetConnected, Presence(true).Kind)
	assert.Equal(t, KindTargetDisconnected, Presence(false).Kind)

	wire, err := json.Marshal(Presence(false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"TargetDisconnected"}`, string(wire))
}
