package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Toolchain locates the external tools the pipeline shells out to. Empty
// fields are filled in by Resolve.
type Toolchain struct {
	Python         string   // Interpreter with triton installed
	CC             string   // C compiler used for the library and test binary
	TritonToolsDir string   // Directory holding compile.py and link.py
	CUDAIncludeDir string   // Directory holding cuda.h
	LibCUDADirs    []string // Directories holding libcuda.so, first one is linked
}

// tritonQuery prints, one per line, the tools dir, the CUDA include dir and
// the libcuda dirs joined by the path list separator
const tritonQuery = `import os
import triton
from triton.common import cuda_include_dir, libcuda_dirs
print(triton.tools.__path__[0])
print(cuda_include_dir())
print(os.pathsep.join(libcuda_dirs()))
`

// CompilerScript is the path of triton's AOT compiler entry point
func (tc *Toolchain) CompilerScript() string {
	return filepath.Join(tc.TritonToolsDir, "compile.py")
}

// LinkerScript is the path of triton's AOT linker entry point
func (tc *Toolchain) LinkerScript() string {
	return filepath.Join(tc.TritonToolsDir, "link.py")
}

// LibCUDADir is the directory passed to -L when linking against libcuda
func (tc *Toolchain) LibCUDADir() string {
	if len(tc.LibCUDADirs) == 0 {
		return ""
	}
	return tc.LibCUDADirs[0]
}

func (tc *Toolchain) complete() bool {
	return tc.Python != "" && tc.CC != "" && tc.TritonToolsDir != "" &&
		tc.CUDAIncludeDir != "" && len(tc.LibCUDADirs) > 0
}

// Resolve fills unset fields. Python and CC come from $PYTHON and $CC, else
// python3 and gcc; the triton and CUDA paths are asked of the interpreter.
func (tc *Toolchain) Resolve(ctx context.Context, exe Executor) error {
	if tc.Python == "" {
		tc.Python = envOr("PYTHON", "python3")
	}
	if tc.CC == "" {
		tc.CC = envOr("CC", "gcc")
	}
	if tc.complete() {
		return nil
	}

	out, err := exe.Output(ctx, Command{
		Name: tc.Python,
		Args: []string{"-c", tritonQuery},
	})
	if err != nil {
		return &CommandError{Step: "triton path query", Cmd: Command{Name: tc.Python, Args: []string{"-c", "..."}}, Err: err}
	}
	lines := strings.SplitN(strings.TrimSuffix(string(out), "\n"), "\n", 3)
	if len(lines) != 3 {
		return fmt.Errorf("unexpected triton path query output: %q", string(out))
	}
	if tc.TritonToolsDir == "" {
		tc.TritonToolsDir = strings.TrimSpace(lines[0])
	}
	if tc.CUDAIncludeDir == "" {
		tc.CUDAIncludeDir = strings.TrimSpace(lines[1])
	}
	if len(tc.LibCUDADirs) == 0 {
		for _, d := range filepath.SplitList(strings.TrimSpace(lines[2])) {
			if d != "" {
				tc.LibCUDADirs = append(tc.LibCUDADirs, d)
			}
		}
	}
	if len(tc.LibCUDADirs) == 0 {
		return fmt.Errorf("triton reported no libcuda directories")
	}
	return nil
}

// Check verifies the resolved tools exist and are executable
func (tc *Toolchain) Check() error {
	for _, tool := range []string{tc.Python, tc.CC} {
		path, err := exec.LookPath(tool)
		if err != nil {
			return fmt.Errorf("tool not found: %w", err)
		}
		if err := checkExecutable(path); err != nil {
			return err
		}
	}
	for _, script := range []string{tc.CompilerScript(), tc.LinkerScript()} {
		if _, err := os.Stat(script); err != nil {
			return fmt.Errorf("triton tool missing: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
