package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlayerKeepsJoinOrder(t *testing.T) {
	r := NewRoom("text")
	r.AddPlayer("A", "alice")
	r.AddPlayer("B", "")
	r.AddPlayer("A", "alice again")

	assert.Equal(t, []string{"A", "B"}, r.Order)
	assert.Equal(t, "alice again", r.Players["A"].Name)
	assert.Equal(t, DefaultPlayerName, r.Players["B"].Name)
}

func TestRemovePlayer(t *testing.T) {
	r := NewRoom("text")
	r.AddPlayer("A", "a")
	r.AddPlayer("B", "b")
	r.Finished = []string{"A", "B"}

	r.RemovePlayer("A")

	assert.NotContains(t, r.Players, "A")
	assert.Equal(t, []string{"B"}, r.Order)
	assert.Equal(t, []string{"B"}, r.Finished)
}

func TestNextHost(t *testing.T) {
	r := NewRoom("text")
	assert.Equal(t, "", r.NextHost())

	r.AddPlayer("A", "a")
	r.AddPlayer("B", "b")
	r.RemovePlayer("A")
	assert.Equal(t, "B", r.NextHost())
}

func TestAllFinished(t *testing.T) {
	r := NewRoom("text")
	assert.False(t, r.AllFinished(), "empty room never counts as finished")

	r.AddPlayer("A", "a")
	r.AddPlayer("B", "b")
	assert.False(t, r.AllFinished())

	r.Players["A"].Finished = true
	assert.False(t, r.AllFinished())

	r.Players["B"].Finished = true
	assert.True(t, r.AllFinished())
}

func TestSnapshotWireShape(t *testing.T) {
	r := NewRoom("hello")
	r.AddPlayer("A", "a")
	r.Host = "A"

	data, err := json.Marshal(r.Snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "hello", decoded["text"])
	assert.Equal(t, "A", decoded["host"])
	assert.Nil(t, decoded["raceStart"], "absent race marshals as null")
	assert.Equal(t, []any{}, decoded["finishedPlayers"], "always an array, never null")

	r.RaceStart = 6000
	r.Finished = []string{"A"}
	data, err = json.Marshal(r.Snapshot())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, float64(6000), decoded["raceStart"])
	assert.Equal(t, []any{"A"}, decoded["finishedPlayers"])
}
