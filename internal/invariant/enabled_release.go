//go:build !ptodebug

package invariant

// Enabled reports whether invariant checks run. Build with -tags ptodebug
// to turn them on.
const Enabled = false
