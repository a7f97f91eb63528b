//go:build unix

package runner

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// checkExecutable reports whether the current user may execute path
func checkExecutable(path string) error {
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("%s is not executable: %w", path, err)
	}
	return nil
}
