package store

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bleikamp/ply/internal/relay/event"
)

func decode(t *testing.T, kind event.Kind, data string) event.Incoming {
	t.Helper()
	in, err := event.Decode(event.Envelope{Kind: kind, Data: json.RawMessage(data)})
	require.NoError(t, err)
	return in
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := New()
	snap := s.Snapshot()
	assert.Nil(t, snap.InspectionRoot)
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Styles)
	assert.Equal(t, Stats{}, s.Stats())
}

func TestSetStylesMerges(t *testing.T) {
	s := New()
	s.Apply(decode(t, event.KindSetStyles, `{"styles":{"5":"A"}}`))
	s.Apply(decode(t, event.KindSetStyles, `{"styles":{"7":"B"}}`))

	want := map[event.NodeID]event.Style{
		"5": event.Style(`"A"`),
		"7": event.Style(`"B"`),
	}
	if diff := cmp.Diff(want, s.Snapshot().Styles); diff != "" {
		t.Errorf("styles mismatch (-want +got):\n%s", diff)
	}

	// Overwrite of an existing key.
	s.Apply(decode(t, event.KindSetStyles, `{"styles":{"5":"C"}}`))
	assert.Equal(t, event.Style(`"C"`), s.Snapshot().Styles["5"])
	assert.Len(t, s.Snapshot().Styles, 2)
}

func TestSetDocumentReplaces(t *testing.T) {
	s := New()
	s.Apply(decode(t, event.KindSetStyles, `{"styles":{"5":"A","7":"B"}}`))
	s.Apply(decode(t, event.KindSetDocument, `{"nodes":{"1":"X"},"styles":{}}`))

	snap := s.Snapshot()
	assert.Empty(t, snap.Styles)
	assert.Equal(t, map[event.NodeID]event.Node{"1": event.Node(`"X"`)}, snap.Nodes)
}

func TestSetInspectionRoot(t *testing.T) {
	s := New()
	changed := s.Apply(decode(t, event.KindSetInspectionRoot, `{"nodeId":7}`))
	assert.True(t, changed)
	require.NotNil(t, s.Snapshot().InspectionRoot)
	assert.Equal(t, event.NodeID("7"), s.Snapshot().InspectionRoot.ID)

	s.Apply(decode(t, event.KindSetInspectionRoot, `{"nodeId":null}`))
	assert.Nil(t, s.Snapshot().InspectionRoot)
}

func TestPassthroughDoesNotMutate(t *testing.T) {
	s := New()
	s.Apply(decode(t, event.KindSetDocument, `{"nodes":{"1":"X"},"styles":{"1":"S"}}`))
	before := s.Snapshot()

	for _, kind := range []event.Kind{event.KindTargetConnected, event.KindError, "SomethingNew"} {
		assert.False(t, s.Apply(decode(t, kind, `{"nodes":{}}`)))
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("pass-through mutated state (-before +after):\n%s", diff)
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.Apply(decode(t, event.KindSetDocument, `{"nodes":{"1":"X"},"styles":{"1":"S"}}`))
	s.Apply(decode(t, event.KindSetInspectionRoot, `{"nodeId":7}`))
	s.Reset()

	if diff := cmp.Diff(New().Snapshot(), s.Snapshot()); diff != "" {
		t.Errorf("reset state differs from initial (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := New()
	s.Apply(decode(t, event.KindSetStyles, `{"styles":{"5":"A"}}`))
	snap := s.Snapshot()
	snap.Styles["9"] = event.Style(`"Z"`)

	assert.NotContains(t, s.Snapshot().Styles, event.NodeID("9"))
}

// A consumer that saw every event and a consumer that only received the
// replay envelopes must converge to the same state.
func TestReplayEquivalence(t *testing.T) {
	history := []event.Envelope{
		{Kind: event.KindSetDocument, Data: json.RawMessage(`{"nodes":{"1":{"tag":"html"},"2":{"tag":"body"}},"styles":{"1":{"computed":{"color":"red"}}}}`)},
		{Kind: event.KindSetStyles, Data: json.RawMessage(`{"styles":{"2":{"computed":{"color":"blue"},"parentComputed":{"color":"red"}}}}`)},
		{Kind: "Highlight", Data: json.RawMessage(`{"nodeId":2}`)},
		{Kind: event.KindSetInspectionRoot, Data: json.RawMessage(`{"nodeId":2}`)},
		{Kind: event.KindSetStyles, Data: json.RawMessage(`{"styles":{"1":{"computed":{"color":"green"}}}}`)},
	}

	live := New()
	for _, env := range history {
		in, err := event.Decode(env)
		require.NoError(t, err)
		live.Apply(in)
	}

	relay := New()
	for _, env := range history {
		in, err := event.Decode(env)
		require.NoError(t, err)
		relay.Apply(in)
	}

	// Late joiner: rebuild from the replay envelopes only.
	snap := relay.Snapshot()
	var replay []event.Envelope
	if snap.InspectionRoot != nil {
		root, err := event.NewSetInspectionRoot(*snap.InspectionRoot)
		require.NoError(t, err)
		replay = append(replay, root)
	}
	doc, err := event.NewSetDocument(snap.Nodes, snap.Styles)
	require.NoError(t, err)
	replay = append(replay, doc)

	late := New()
	for _, env := range replay {
		in, err := event.Decode(env)
		require.NoError(t, err)
		late.Apply(in)
	}

	if diff := cmp.Diff(live.Snapshot(), late.Snapshot()); diff != "" {
		t.Errorf("late joiner diverged (-live +late):\n%s", diff)
	}
}
