//go:build !unix

package repository

import (
	"fmt"
	"os"
)

// checkAccess approximates access(2): the directory must be listable and
// a file must be creatable inside it.
func checkAccess(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	f.Close()

	probe, err := os.CreateTemp(dir, ".dorkbox-access-*")
	if err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
