package besteffort

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultEmpty(t *testing.T) {
	var r Result
	require.True(t, r.Succeeded())
	require.NoError(t, r.Primary())
	require.NoError(t, r.Side())
}

func TestResultSideNeverFailsPrimary(t *testing.T) {
	var r Result
	r.Observe(fmt.Errorf("mirror write failed"))
	r.Observe(nil)
	r.Observe(fmt.Errorf("scratch removal failed"))

	require.True(t, r.Succeeded())
	require.NoError(t, r.Primary())
	require.Error(t, r.Side())
	require.Contains(t, r.Side().Error(), "mirror write failed")
	require.Contains(t, r.Side().Error(), "scratch removal failed")
}

func TestResultFirstPrimaryWins(t *testing.T) {
	var r Result
	first := errors.New("first")
	r.FailWith(first)
	r.FailWith(errors.New("second"))

	require.False(t, r.Succeeded())
	require.Equal(t, first, r.Primary())
	require.Error(t, r.Side())
}
