package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJitteredWait(t *testing.T) {
	t.Run("first wait returns immediately", func(t *testing.T) {
		l := NewJittered(100*time.Millisecond, 200*time.Millisecond)

		start := time.Now()
		require.NoError(t, l.Wait(context.Background()))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("second wait is delayed within the window", func(t *testing.T) {
		l := NewJittered(50*time.Millisecond, 100*time.Millisecond)

		require.NoError(t, l.Wait(context.Background()))
		start := time.Now()
		require.NoError(t, l.Wait(context.Background()))

		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
		assert.Less(t, elapsed, 300*time.Millisecond)
	})

	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		l := NewJittered(5*time.Second, 5*time.Second)
		require.NoError(t, l.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := l.Wait(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("inverted window collapses to the minimum", func(t *testing.T) {
		l := NewJittered(100*time.Millisecond, 10*time.Millisecond)
		assert.Equal(t, 100*time.Millisecond, l.maxDelay)
	})
}

func TestAdaptive(t *testing.T) {
	t.Run("backs off after repeated errors", func(t *testing.T) {
		l := NewAdaptive(2*time.Second, 8*time.Second)

		for i := 0; i < backoffAfter; i++ {
			l.RecordError()
		}

		assert.Equal(t, 3*time.Second, l.minDelay)
		assert.Equal(t, 12*time.Second, l.maxDelay)
	})

	t.Run("one success resets the error streak", func(t *testing.T) {
		l := NewAdaptive(2*time.Second, 8*time.Second)

		l.RecordError()
		l.RecordError()
		l.RecordSuccess()
		l.RecordError()
		l.RecordError()

		assert.Equal(t, 2*time.Second, l.minDelay)
	})

	t.Run("delays never exceed the ceiling", func(t *testing.T) {
		l := NewAdaptive(50*time.Second, 110*time.Second)

		for i := 0; i < backoffAfter*10; i++ {
			l.RecordError()
		}

		assert.LessOrEqual(t, l.minDelay, ceilingMinDelay)
		assert.LessOrEqual(t, l.maxDelay, ceilingMaxDelay)
	})

	t.Run("sustained success narrows the window down to the floor", func(t *testing.T) {
		l := NewAdaptive(2*time.Second, 8*time.Second)

		for i := 0; i < recoverAfter*100; i++ {
			l.RecordSuccess()
		}

		assert.Equal(t, floorDelay, l.minDelay)
	})
}
