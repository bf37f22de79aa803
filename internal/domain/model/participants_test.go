package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantSetAddIsIdempotent(t *testing.T) {
	s := NewParticipantSet("alice")
	s = s.Add("bob")
	s = s.Add("alice")
	s = s.Add("bob")

	assert.Equal(t, ParticipantSet{"alice", "bob"}, s)
	assert.True(t, s.Contains("bob"))
	assert.False(t, s.Contains("carol"))
}

func TestParticipantSetRemove(t *testing.T) {
	s := NewParticipantSet("alice", "bob", "carol")

	assert.Equal(t, ParticipantSet{"alice", "carol"}, s.Remove("bob"))
	assert.Equal(t, ParticipantSet{"alice", "bob", "carol"}, s.Remove("dave"))
	assert.Equal(t, ParticipantSet{"alice", "bob", "carol"}, s, "remove does not mutate the receiver")
}

func TestParticipantSetJoinLeaveRoundTrip(t *testing.T) {
	before := NewParticipantSet("owner", "guest")

	after := before.Add("newcomer").Remove("newcomer")
	assert.Equal(t, before, after)
}

func TestParticipantSetJSON(t *testing.T) {
	var empty ParticipantSet
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	var s ParticipantSet
	require.NoError(t, json.Unmarshal([]byte(`["a","b","a"]`), &s))
	assert.Equal(t, ParticipantSet{"a", "b"}, s)

	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &s))
}

func TestParticipantSetSQL(t *testing.T) {
	v, err := NewParticipantSet("a", "b").Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	var s ParticipantSet
	require.NoError(t, s.Scan([]byte(`["x","y","x"]`)))
	assert.Equal(t, ParticipantSet{"x", "y"}, s)

	require.NoError(t, s.Scan(`["z"]`))
	assert.Equal(t, ParticipantSet{"z"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	assert.Error(t, s.Scan(42))
}
