//go:build unix

package repository

import "golang.org/x/sys/unix"

// checkAccess reports whether the process may read, write and traverse dir.
func checkAccess(dir string) error {
	return unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK)
}
