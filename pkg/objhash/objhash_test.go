package objhash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vasuse7en/geosafe/pkg/types"
)

func TestBuildIsDeterministic(t *testing.T) {
	taskID := types.NewTaskID()
	a := MustBuild("layer-file", int64(42), taskID)
	b := MustBuild("layer-file", int64(42), taskID)
	require.Equal(t, a, b)
}

func TestBuildOrderMatters(t *testing.T) {
	a := MustBuild("1", "2", "3")
	b := MustBuild("3", "2", "1")
	require.NotEqual(t, a, b)
}

func TestBuildNoBlending(t *testing.T) {
	// "ab"+"c" must differ from "a"+"bc".
	a := MustBuild("ab", "c")
	b := MustBuild("a", "bc")
	require.NotEqual(t, a, b)
}

func TestBuildDistinctTypes(t *testing.T) {
	a := MustBuild(struct{ X int }{X: 1})
	b := MustBuild(struct{ X int }{X: 2})
	require.NotEqual(t, a, b)

	require.NotEqual(t, MustBuild(nil), MustBuild(""))
}

func TestBuilderReset(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Write("something"))
	b.Reset()
	require.NoError(t, b.Write("layer-file"))
	require.Equal(t, MustBuild("layer-file"), b.Result())
}
