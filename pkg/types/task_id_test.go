package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskIDParseRoundTrip(t *testing.T) {
	taskID := NewTaskID()
	parsed, err := ParseTaskID(taskID.String())
	require.NoError(t, err)
	require.Equal(t, taskID, parsed)
}

func TestTaskIDScan(t *testing.T) {
	taskID := NewTaskID()

	t.Run("raw bytes", func(t *testing.T) {
		var scanned TaskID
		require.NoError(t, scanned.Scan(taskID[:]))
		require.Equal(t, taskID, scanned)
	})

	t.Run("text", func(t *testing.T) {
		var scanned TaskID
		require.NoError(t, scanned.Scan(taskID.String()))
		require.Equal(t, taskID, scanned)
	})

	t.Run("text bytes", func(t *testing.T) {
		var scanned TaskID
		require.NoError(t, scanned.Scan([]byte(taskID.String())))
		require.Equal(t, taskID, scanned)
	})

	t.Run("garbage", func(t *testing.T) {
		var scanned TaskID
		require.Error(t, scanned.Scan("not-an-uuid"))
	})

	t.Run("NULL resets", func(t *testing.T) {
		scanned := NewTaskID()
		require.NoError(t, scanned.Scan(nil))
		require.True(t, scanned.IsZero())
	})
}

func TestTaskIDValue(t *testing.T) {
	t.Run("zero is NULL", func(t *testing.T) {
		v, err := TaskID{}.Value()
		require.NoError(t, err)
		require.Nil(t, v)
	})

	t.Run("non-zero is text", func(t *testing.T) {
		taskID := NewTaskID()
		v, err := taskID.Value()
		require.NoError(t, err)
		require.Equal(t, taskID.String(), v)
	})
}

func TestTaskIDJSON(t *testing.T) {
	taskID := NewTaskID()
	b, err := json.Marshal(taskID)
	require.NoError(t, err)
	require.Equal(t, `"`+taskID.String()+`"`, string(b))

	var decoded TaskID
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, taskID, decoded)
}
