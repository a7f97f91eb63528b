package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/notargets/AOTKernel/builder"
)

// compileCommand builds the triton AOT compiler invocation for one signature
func (kr *Runner) compileCommand(dir, kernelPath, signature string) Command {
	out := kr.OutName()
	return Command{
		Name: kr.Python,
		Args: []string{
			kr.CompilerScript(),
			"-n", builder.KernelName,
			"--signature", signature,
			"--out-name", out,
			"-o", out,
			"-w", strconv.Itoa(kr.NumWarps),
			"-g", kr.GenerateGrid(),
			kernelPath,
		},
		Dir: dir,
	}
}

// CompileAOTKernels invokes the compiler once per (ha, hb) hint pair. The
// first failing invocation stops the loop.
func (kr *Runner) CompileAOTKernels(ctx context.Context, dir, kernelPath string) error {
	for _, v := range kr.Variants() {
		cmd := kr.compileCommand(dir, kernelPath, v.Signature)
		step := fmt.Sprintf("compile [ha=%q hb=%q]", v.Hints.Ha, v.Hints.Hb)
		if err := kr.run(ctx, step, cmd); err != nil {
			return err
		}
	}
	return nil
}

// CompileAOTKernelNoSpecialization compiles the single variant without
// alignment or stride hints
func (kr *Runner) CompileAOTKernelNoSpecialization(ctx context.Context, dir, kernelPath string) error {
	cmd := kr.compileCommand(dir, kernelPath, kr.GenerateUnspecializedSignature())
	return kr.run(ctx, "compile [unspecialized]", cmd)
}

// LinkAOTKernels merges every compiled header in dir into kernel.h/kernel.c,
// exposing one dispatcher keyed by algo id plus a default entry point
func (kr *Runner) LinkAOTKernels(ctx context.Context, dir string) error {
	headers, err := globSorted(dir, "*.h")
	if err != nil {
		return fmt.Errorf("failed to list kernel headers: %w", err)
	}
	if len(headers) == 0 {
		return fmt.Errorf("no kernel headers found in %s", dir)
	}

	args := append([]string{kr.LinkerScript()}, headers...)
	args = append(args, "-o", "kernel")
	return kr.run(ctx, "link", Command{Name: kr.Python, Args: args, Dir: dir})
}

// sourcesIn lists files in dir with the given extension, erroring when none exist
func sourcesIn(dir, ext string) ([]string, error) {
	files, err := globSorted(dir, "*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", ext, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", ext, filepath.Base(dir))
	}
	return files, nil
}
