//go:build !unix

package runner

import (
	"fmt"
	"os"
)

// checkExecutable only checks that path exists on platforms without access(2)
func checkExecutable(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s is not executable: %w", path, err)
	}
	return nil
}
