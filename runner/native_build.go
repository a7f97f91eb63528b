package runner

import (
	"context"
	"fmt"

	"github.com/notargets/AOTKernel/builder"
)

// BuildKernelLibrary compiles every .c file in dir to position independent
// objects and links them into a shared library against libcuda. It must run
// before the test driver is written into dir.
func (kr *Runner) BuildKernelLibrary(ctx context.Context, dir, libName string) error {
	cFiles, err := sourcesIn(dir, ".c")
	if err != nil {
		return err
	}
	args := append(cFiles, "-I", kr.CUDAIncludeDir, "-c", "-fPIC")
	if err := kr.run(ctx, "kernel objects", Command{Name: kr.CC, Args: args, Dir: dir}); err != nil {
		return err
	}

	oFiles, err := sourcesIn(dir, ".o")
	if err != nil {
		return err
	}
	args = append(oFiles, "-shared", "-o", libName, "-L", kr.LibCUDADir())
	return kr.run(ctx, "kernel library", Command{Name: kr.CC, Args: args, Dir: dir})
}

// BuildTestBinary writes test.c and links it against libcuda and the kernel
// library built in dir
func (kr *Runner) BuildTestBinary(ctx context.Context, dir, exe string) error {
	if _, err := kr.WriteTestDriver(dir); err != nil {
		return fmt.Errorf("failed to generate test driver: %w", err)
	}
	args := []string{
		builder.TestDriverFile,
		"-I", kr.CUDAIncludeDir,
		"-L", kr.LibCUDADir(),
		"-l", "cuda",
		"-L", dir,
		"-l", "kernel",
		"-o", exe,
	}
	return kr.run(ctx, "test binary", Command{Name: kr.CC, Args: args, Dir: dir})
}
