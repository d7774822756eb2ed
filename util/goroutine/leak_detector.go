package goroutine

import (
	"runtime"
	"testing"
	"time"
)

// AssertNoLeaks fails the test if, after all cleanups registered later have
// run, the goroutine count stays above its value at the time of the call for
// longer than timeout. Call it first in the test.
func AssertNoLeaks(t testing.TB, timeout time.Duration) {
	t.Helper()
	before := runtime.NumGoroutine()

	t.Cleanup(func() {
		if WaitForGoroutineCount(before, timeout, 10*time.Millisecond) {
			return
		}
		current := runtime.NumGoroutine()
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		t.Errorf("goroutine leak: started with %d goroutines, ended with %d\n%s", before, current, buf[:n])
	})
}

// WaitForGoroutineCount waits until the goroutine count drops to target.
// It reports whether the target was reached before timeout.
func WaitForGoroutineCount(target int, timeout, pollInterval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if runtime.NumGoroutine() <= target {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}
