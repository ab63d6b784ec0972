package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskStateRoundTrip(t *testing.T) {
	for state := TaskStateUndefined + 1; state < EndOfTaskState; state++ {
		t.Run(state.String(), func(t *testing.T) {
			parsed, err := ParseTaskState(state.String())
			require.NoError(t, err)
			require.Equal(t, state, parsed)

			var scanned TaskState
			require.NoError(t, scanned.Scan([]byte(state.String())))
			require.Equal(t, state, scanned)
		})
	}
}

func TestTaskStateParseUnknown(t *testing.T) {
	_, err := ParseTaskState("NOT-A-STATE")
	require.Error(t, err)
}

func TestTaskStateNULL(t *testing.T) {
	value, err := TaskStateUndefined.Value()
	require.NoError(t, err)
	require.Nil(t, value)

	scanned := TaskStateRunning
	require.NoError(t, scanned.Scan(nil))
	require.Equal(t, TaskStateUndefined, scanned)
}

func TestTaskStateIsTerminal(t *testing.T) {
	require.False(t, TaskStatePending.IsTerminal())
	require.False(t, TaskStateRunning.IsTerminal())
	require.False(t, TaskStateRetry.IsTerminal())
	require.True(t, TaskStateSuccess.IsTerminal())
	require.True(t, TaskStateFailure.IsTerminal())
}
