package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

var errExit = errors.New("exit status 1")

// fakeExecutor records every invocation and mimics the files each external
// tool would leave behind
type fakeExecutor struct {
	mu          sync.Mutex
	calls       []Command
	failOn      func(Command) bool
	noArtifacts bool
	output      string
	outputCalls []Command
}

func (f *fakeExecutor) Run(ctx context.Context, cmd Command) error {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	failed := f.failOn != nil && f.failOn(cmd)
	f.mu.Unlock()
	if failed {
		return errExit
	}
	if f.noArtifacts {
		return nil
	}
	return simulateTool(cmd)
}

func (f *fakeExecutor) Output(ctx context.Context, cmd Command) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputCalls = append(f.outputCalls, cmd)
	return []byte(f.output), nil
}

func (f *fakeExecutor) callsTo(suffix string) []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Command
	for _, c := range f.calls {
		if len(c.Args) > 0 && strings.HasSuffix(c.Args[0], suffix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeExecutor) callsNamed(name string) []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Command
	for _, c := range f.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func simulateTool(cmd Command) error {
	write := func(name string, mode os.FileMode) error {
		return os.WriteFile(filepath.Join(cmd.Dir, name), []byte("//"), mode)
	}
	switch {
	case len(cmd.Args) > 0 && strings.HasSuffix(cmd.Args[0], "compile.py"):
		headers, _ := filepath.Glob(filepath.Join(cmd.Dir, "*.h"))
		base := fmt.Sprintf("%s.variant%d", argAfter(cmd.Args, "--out-name"), len(headers))
		if err := write(base+".h", 0o644); err != nil {
			return err
		}
		return write(base+".c", 0o644)
	case len(cmd.Args) > 0 && strings.HasSuffix(cmd.Args[0], "link.py"):
		if err := write("kernel.h", 0o644); err != nil {
			return err
		}
		return write("kernel.c", 0o644)
	case cmd.Name == testToolchain().CC:
		if slices.Contains(cmd.Args, "-c") {
			for _, a := range cmd.Args {
				if strings.HasSuffix(a, ".c") {
					obj := strings.TrimSuffix(filepath.Base(a), ".c") + ".o"
					if err := write(obj, 0o644); err != nil {
						return err
					}
				}
			}
			return nil
		}
		return write(argAfter(cmd.Args, "-o"), 0o755)
	}
	return nil
}

func argAfter(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func testToolchain() Toolchain {
	return Toolchain{
		Python:         "python3",
		CC:             "gcc",
		TritonToolsDir: "/opt/triton/tools",
		CUDAIncludeDir: "/usr/local/cuda/include",
		LibCUDADirs:    []string{"/usr/lib/x86_64-linux-gnu"},
	}
}
