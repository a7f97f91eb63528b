package runner

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/notargets/AOTKernel/builder"
	"github.com/notargets/AOTKernel/utils"
)

// Names of the artifacts built in each work directory
const (
	KernelLibrary = "libkernel.so"
	TestBinary    = "test"

	// LibraryPathEnv is set to the work directory when the test binary runs
	LibraryPathEnv = "LD_LIBRARY_PATH"
)

// Options configures how a Runner drives the external toolchain
type Options struct {
	Toolchain Toolchain
	Executor  Executor // defaults to NewExecExecutor()
	Logger    *log.Logger
	Verbose   bool

	// WorkRoot is the parent of per-compile work directories, "" uses os.TempDir()
	WorkRoot string
	// KeepOnFailure leaves a partially built work directory behind on error
	KeepOnFailure bool
	// ProbeDevice opens the CUDA device before launching the test binary
	ProbeDevice bool
}

// Runner orchestrates kernel compilation, linking, native builds and test
// execution for one kernel configuration
type Runner struct {
	builder.Config
	Toolchain

	exec          Executor
	log           *log.Logger
	toolMu        sync.Mutex // guards Toolchain resolution
	workRoot      string
	keepOnFailure bool
	probeDevice   bool
}

// NewRunner validates the kernel configuration and creates a Runner
func NewRunner(cfg builder.Config, opts Options) (*Runner, error) {
	cfg = builder.NewConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kernel config: %w", err)
	}

	kr := &Runner{
		Config:        cfg,
		Toolchain:     opts.Toolchain,
		exec:          opts.Executor,
		log:           opts.Logger,
		workRoot:      opts.WorkRoot,
		keepOnFailure: opts.KeepOnFailure,
		probeDevice:   opts.ProbeDevice,
	}
	if kr.exec == nil {
		kr.exec = NewExecExecutor()
	}
	if kr.log == nil {
		if opts.Verbose {
			kr.log = log.New(os.Stderr, "aotkernel: ", log.LstdFlags)
		} else {
			kr.log = log.New(io.Discard, "", 0)
		}
	}
	return kr, nil
}

// Compile writes the kernel sources into a fresh work directory, compiles
// every variant, links them, and builds libkernel.so and the test binary.
// The work directory is returned for Run. Each call gets its own directory.
func (kr *Runner) Compile(ctx context.Context) (dir string, err error) {
	if err := kr.resolveToolchain(ctx); err != nil {
		return "", fmt.Errorf("failed to resolve toolchain: %w", err)
	}

	dir, err = os.MkdirTemp(kr.workRoot, "aotkernel-")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	// Tools run with cwd = dir, so every path handed to them must be absolute
	abs, err := filepath.Abs(dir)
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to resolve work directory: %w", err)
	}
	dir = abs
	defer func() {
		if err != nil && !kr.keepOnFailure {
			os.RemoveAll(dir)
			dir = ""
		}
	}()
	kr.log.Printf("compiling %s BM=%d BN=%d BK=%d in %s",
		kr.DataType, kr.BM, kr.BN, kr.BK, dir)

	kernelPath, err := builder.WriteKernelSources(dir)
	if err != nil {
		return dir, err
	}

	if kr.NoSpecialization {
		err = kr.CompileAOTKernelNoSpecialization(ctx, dir, kernelPath)
	} else {
		err = kr.CompileAOTKernels(ctx, dir, kernelPath)
	}
	if err != nil {
		return dir, err
	}
	if err = kr.LinkAOTKernels(ctx, dir); err != nil {
		return dir, err
	}
	if err = kr.BuildKernelLibrary(ctx, dir, KernelLibrary); err != nil {
		return dir, err
	}
	if err = kr.BuildTestBinary(ctx, dir, TestBinary); err != nil {
		return dir, err
	}
	return dir, nil
}

// Run executes the test binary in dir with the A, B and C csv paths. The
// library search path is pointed at dir so libkernel.so resolves.
func (kr *Runner) Run(ctx context.Context, dir, aPath, bPath, cPath string) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	exe := filepath.Join(dir, TestBinary)
	if err := checkExecutable(exe); err != nil {
		return fmt.Errorf("test binary not built: %w", err)
	}

	if kr.probeDevice {
		mode, err := utils.ProbeCUDADevice(0)
		if err != nil {
			return fmt.Errorf("device probe failed: %w", err)
		}
		kr.log.Printf("probed %s device", mode)
	}

	// The child runs in dir, so relative paths are anchored to our cwd first
	args := make([]string, 0, 3)
	for _, p := range []string{aPath, bPath, cPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		args = append(args, abs)
	}

	cmd := Command{
		Name: "./" + TestBinary,
		Args: args,
		Dir:  dir,
		Env:  withEnv(os.Environ(), LibraryPathEnv, dir),
	}
	return kr.run(ctx, "test run", cmd)
}

// resolveToolchain fills the shared Toolchain once; later calls find it
// complete and only read it
func (kr *Runner) resolveToolchain(ctx context.Context) error {
	kr.toolMu.Lock()
	defer kr.toolMu.Unlock()
	return kr.Toolchain.Resolve(ctx, kr.exec)
}

// RemoveWorkDir deletes a work directory returned by Compile
func RemoveWorkDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

func (kr *Runner) run(ctx context.Context, step string, cmd Command) error {
	kr.log.Printf("%s: %s (in %s)", step, cmd, cmd.Dir)
	if err := kr.exec.Run(ctx, cmd); err != nil {
		return &CommandError{Step: step, Cmd: cmd, Err: err}
	}
	return nil
}

// withEnv returns env with key set to value, replacing any existing entry
func withEnv(env []string, key, value string) []string {
	out := make([]string, 0, len(env)+1)
	prefix := key + "="
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+value)
}

// globSorted returns the files in dir matching pattern in lexical order
func globSorted(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
