package ui_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/admitcard-query/internal/ui"
	"github.com/noah-isme/admitcard-query/internal/ui/uitest"
)

func startLoop(t *testing.T, opts ...ui.LoopOption) *ui.Loop {
	t.Helper()
	loop := ui.NewLoop(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Stopped()
	})
	return loop
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	loop := startLoop(t)

	var seen []int
	for i := 0; i < 100; i++ {
		i := i
		loop.Post(func() { seen = append(seen, i) })
	}
	require.NoError(t, loop.Do(context.Background(), func() {}))

	require.Len(t, seen, 100)
	for i, v := range seen {
		require.Equal(t, i, v)
	}
}

func TestLoopPostFromTask(t *testing.T) {
	loop := startLoop(t)

	done := make(chan struct{})
	loop.Post(func() {
		loop.Post(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested post never ran")
	}
}

func TestLoopAfterFuncRunsOnLoop(t *testing.T) {
	sched := uitest.NewManualScheduler()
	loop := startLoop(t, ui.WithScheduler(sched))

	var fired atomic.Bool
	loop.AfterFunc(10*time.Second, func() { fired.Store(true) })

	sched.Advance(9 * time.Second)
	require.NoError(t, loop.Do(context.Background(), func() {}))
	require.False(t, fired.Load())

	sched.Advance(time.Second)
	require.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
}

func TestLoopRecoversPanics(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	loop := startLoop(t, ui.WithLogger(zap.New(core)))

	loop.Post(func() { panic("boom") })
	ran := false
	require.NoError(t, loop.Do(context.Background(), func() { ran = true }))
	require.True(t, ran)
	require.Equal(t, 1, logs.FilterMessage("ui_task_panic").Len())
}

func TestLoopDoAfterStop(t *testing.T) {
	loop := ui.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	err := loop.Do(context.Background(), func() {})
	require.ErrorIs(t, err, ui.ErrLoopStopped)
	require.Error(t, loop.Run(context.Background()))
}
