package robotloop

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// The interrupt latch is a process-wide singleton: once any Backend is
// constructed, SIGINT/SIGTERM are latched for the lifetime of the process
// and OR into every Backend's own shutdown check. It is installed lazily
// on first use and never torn down.
var (
	signalLatchOnce sync.Once
	signalReceived  atomic.Bool
)

func installSignalLatch() {
	signalLatchOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-ch
			signalReceived.Store(true)
		}()
	})
}

// Interrupted reports whether the process has received SIGINT or SIGTERM
// since the first Backend was constructed. It is exported so embedders can
// observe the same latch the backend loops check.
func Interrupted() bool {
	return signalReceived.Load()
}
