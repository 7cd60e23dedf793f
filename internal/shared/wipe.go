// Package shared holds small helpers used by more than one client package.
package shared

// WipeByteArray overwrites b with zeros, for passwords read from the
// terminal. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
