package runlock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
)

func TestLocalLock(t *testing.T) {
	ctx := context.Background()

	t.Run("second acquire fails fast while held", func(t *testing.T) {
		lock := NewLocalLock()

		release, err := lock.Acquire(ctx)
		require.NoError(t, err)

		_, err = lock.Acquire(ctx)
		assert.True(t, errors.Is(err, port.ErrLockHeld))

		require.NoError(t, release(ctx))

		release2, err := lock.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, release2(ctx))
	})

	t.Run("double release is harmless", func(t *testing.T) {
		lock := NewLocalLock()

		release, err := lock.Acquire(ctx)
		require.NoError(t, err)

		require.NoError(t, release(ctx))
		require.NoError(t, release(ctx))

		_, err = lock.Acquire(ctx)
		assert.NoError(t, err)
	})
}
