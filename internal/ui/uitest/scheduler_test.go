package uitest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualSchedulerFiresInOrder(t *testing.T) {
	s := NewManualScheduler()
	var order []string
	s.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	s.AfterFunc(time.Second, func() { order = append(order, "a") })
	stopped := s.AfterFunc(time.Second, func() { order = append(order, "x") })
	require.True(t, stopped.Stop())
	require.Equal(t, 2, s.Pending())

	s.Advance(999 * time.Millisecond)
	require.Empty(t, order)

	s.Advance(5 * time.Second)
	require.Equal(t, []string{"a", "b"}, order)
	require.Zero(t, s.Pending())
	require.Equal(t, 5999*time.Millisecond, s.Now())
	require.False(t, stopped.Stop())
}
