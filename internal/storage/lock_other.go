//go:build !unix

package storage

// lockFile is a no-op where flock is unavailable; only the in-process mutex
// serializes access.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
