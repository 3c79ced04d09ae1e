package present

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestNowIsAlwaysReady(t *testing.T) {
	now := Now()
	require.True(t, now.Ready())
	require.NoError(t, now.Wait())
	require.Empty(t, Flatten(now))
}

func TestJoinElidesCompletedFutures(t *testing.T) {
	f := &fakeFuture{name: "f"}

	require.Same(t, f, Join(Now(), f))
	require.Same(t, f, Join(f, Now()))
	require.Same(t, f, Join(nil, f))
	require.True(t, Join(Now(), nil).Ready())
}

func TestJoinCompletesWhenBothComplete(t *testing.T) {
	a := &fakeFuture{name: "a"}
	b := &fakeFuture{name: "b"}
	j := Join(a, b)

	require.False(t, j.Ready())
	a.ready = true
	require.False(t, j.Ready())
	b.ready = true
	require.True(t, j.Ready())
}

func TestJoinWaitsOnBoth(t *testing.T) {
	errA := errors.New("fence a")
	a := &fakeFuture{name: "a", err: errA}
	b := &fakeFuture{name: "b"}

	err := Join(a, b).Wait()
	require.ErrorIs(t, err, errA)
	require.True(t, a.Ready())
	require.True(t, b.Ready())
}

func TestFlattenPreservesOrder(t *testing.T) {
	a := &fakeFuture{name: "a"}
	b := &fakeFuture{name: "b"}
	c := &fakeFuture{name: "c"}

	require.Equal(t, []Future{a, b, c}, Flatten(Join(Join(a, Now()), Join(b, c))))
}
