package serviceutil

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignalContext(t *testing.T) {
	ctx := SignalContext()
	require.NoError(t, ctx.Err())

	err := syscall.Kill(os.Getpid(), syscall.SIGTERM)
	require.NoError(t, err)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second * 5):
		t.Fatal("context did not cancel on SIGTERM")
	}
}
