package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bleikamp/ply/errors"
)

func TestRegisterReportsCounts(t *testing.T) {
	r := New[string]()

	change, err := r.Register(Producer, "p1", "sink-p1")
	require.NoError(t, err)
	assert.Equal(t, Change{Group: Producer, ID: "p1", Connected: true, Counts: Counts{Producers: 1}}, change)

	change, err = r.Register(Consumer, "c1", "sink-c1")
	require.NoError(t, err)
	assert.Equal(t, Counts{Producers: 1, Consumers: 1}, change.Counts)

	change, err = r.Unregister(Producer, "p1")
	require.NoError(t, err)
	assert.False(t, change.Connected)
	assert.Equal(t, Counts{Producers: 0, Consumers: 1}, change.Counts)
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	r := New[int]()

	_, err := r.Register(Consumer, "c1", 1)
	require.NoError(t, err)

	_, err = r.Register(Consumer, "c1", 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDuplicateConnection))

	// The original entry survives and nothing is double counted.
	assert.Equal(t, 1, r.Count(Consumer))
	assert.Equal(t, Counts{Consumers: 1}, r.Counts())
	member, ok := r.Get(Consumer, "c1")
	require.True(t, ok)
	assert.Equal(t, 1, member)
}

func TestSameIDInDifferentGroups(t *testing.T) {
	r := New[int]()
	_, err := r.Register(Producer, "x", 1)
	require.NoError(t, err)
	_, err = r.Register(Consumer, "x", 2)
	require.NoError(t, err)
	assert.Equal(t, Counts{Producers: 1, Consumers: 1}, r.Counts())
}

func TestUnregisterUnknown(t *testing.T) {
	r := New[int]()

	_, err := r.Unregister(Producer, "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnknownConnection))

	// Removal twice is also a fault.
	_, err = r.Register(Producer, "p1", 1)
	require.NoError(t, err)
	_, err = r.Unregister(Producer, "p1")
	require.NoError(t, err)
	_, err = r.Unregister(Producer, "p1")
	assert.True(t, errors.Is(err, errors.ErrCodeUnknownConnection))
}

func TestReRegisterAfterRemoval(t *testing.T) {
	r := New[int]()
	_, err := r.Register(Producer, "p1", 1)
	require.NoError(t, err)
	_, err = r.Unregister(Producer, "p1")
	require.NoError(t, err)

	change, err := r.Register(Producer, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, change.Counts.Producers)
	assert.True(t, r.Has(Producer, "p1"))
}

func TestMembersOrderedByID(t *testing.T) {
	r := New[string]()
	for _, id := range []string{"c", "a", "b"} {
		_, err := r.Register(Consumer, id, "m-"+id)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"m-a", "m-b", "m-c"}, r.Members(Consumer))
	assert.Empty(t, r.Members(Producer))
}
