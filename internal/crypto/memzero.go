package crypto

import "runtime"

// Wipe zeroes b. Best-effort; the Go runtime may already have copied it.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
