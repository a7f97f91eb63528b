package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"path/filepath"

	"github.com/notargets/AOTKernel/builder"
	"github.com/notargets/AOTKernel/datagen"
	"github.com/notargets/AOTKernel/runner"
)

type kernelFlags struct {
	dtype      *string
	bm, bn, bk *int
	m, n, k    *int
	warps      *int
	algo       *int
	noSpec     *bool
}

func addKernelFlags(fs *flag.FlagSet) *kernelFlags {
	return &kernelFlags{
		dtype:  fs.String("dtype", "fp16", "Operand dtype: fp16, bf16, fp32"),
		bm:     fs.Int("BM", 16, "Block size along M"),
		bn:     fs.Int("BN", 16, "Block size along N"),
		bk:     fs.Int("BK", 16, "Block size along K"),
		m:      fs.Int("M", 16, "Rows of A and C"),
		n:      fs.Int("N", 16, "Columns of B and C"),
		k:      fs.Int("K", 16, "Columns of A, rows of B"),
		warps:  fs.Int("warps", 1, "Warps per program"),
		algo:   fs.Int("algo", 0, "Algo id the test binary dispatches to (0 = default variant)"),
		noSpec: fs.Bool("nospec", false, "Compile a single variant without stride hints"),
	}
}

func (kf *kernelFlags) config() (builder.Config, error) {
	dt, err := builder.ParseDataType(*kf.dtype)
	if err != nil {
		return builder.Config{}, err
	}
	return builder.Config{
		DataType:         dt,
		BM:               *kf.bm,
		BN:               *kf.bn,
		BK:               *kf.bk,
		M:                *kf.m,
		N:                *kf.n,
		K:                *kf.k,
		NumWarps:         *kf.warps,
		AlgoID:           *kf.algo,
		NoSpecialization: *kf.noSpec,
	}, nil
}

type runnerFlags struct {
	python   *string
	cc       *string
	workRoot *string
	keep     *bool
	probe    *bool
	verbose  *bool
}

func addRunnerFlags(fs *flag.FlagSet) *runnerFlags {
	return &runnerFlags{
		python:   fs.String("python", "", "Python interpreter with triton (default $PYTHON or python3)"),
		cc:       fs.String("cc", "", "C compiler (default $CC or gcc)"),
		workRoot: fs.String("work-root", "", "Parent directory for work dirs (default system temp)"),
		keep:     fs.Bool("keep", false, "Keep the work dir when a step fails"),
		probe:    fs.Bool("probe", false, "Probe the CUDA device before running (needs -tags occa)"),
		verbose:  fs.Bool("v", false, "Log every external invocation"),
	}
}

func (rf *runnerFlags) options() runner.Options {
	return runner.Options{
		Toolchain:     runner.Toolchain{Python: *rf.python, CC: *rf.cc},
		WorkRoot:      *rf.workRoot,
		KeepOnFailure: *rf.keep,
		ProbeDevice:   *rf.probe,
		Verbose:       *rf.verbose,
	}
}

// RunGendataCommand writes random operands for an MxK by KxN product
func RunGendataCommand(args []string) error {
	fs := flag.NewFlagSet("gendata", flag.ExitOnError)
	dir := fs.String("dir", "data", "Output directory")
	dtype := fs.String("dtype", "fp16", "Operand dtype: fp16, bf16, fp32")
	m := fs.Int("M", 16, "Rows of A")
	n := fs.Int("N", 16, "Columns of B")
	k := fs.Int("K", 16, "Columns of A, rows of B")
	seed := fs.Uint64("seed", 0, "Random seed (0 = unseeded)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dt, err := builder.ParseDataType(*dtype)
	if err != nil {
		return err
	}
	data, err := datagen.GenerateMatmulData(*dir, *m, *n, *k, dt, seededSource(*seed))
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s and %s\n", data.APath, data.BPath)
	return nil
}

// RunCompileCommand builds the kernel library and test binary and prints
// the work directory
func RunCompileCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	kf := addKernelFlags(fs)
	rf := addRunnerFlags(fs)
	check := fs.Bool("check", false, "Verify tools are installed before compiling")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kr, err := newRunner(kf, rf)
	if err != nil {
		return err
	}
	if *check {
		if err := kr.Toolchain.Resolve(ctx, runner.NewExecExecutor()); err != nil {
			return err
		}
		if err := kr.Toolchain.Check(); err != nil {
			return err
		}
	}
	dir, err := kr.Compile(ctx)
	if err != nil {
		return err
	}
	fmt.Println(dir)
	return nil
}

// RunRunCommand runs a test binary produced by compile
func RunRunCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	rf := addRunnerFlags(fs)
	dir := fs.String("dir", "", "Work directory printed by compile (required)")
	a := fs.String("a", filepath.Join("data", datagen.AFile), "A operand csv")
	b := fs.String("b", filepath.Join("data", datagen.BFile), "B operand csv")
	c := fs.String("c", filepath.Join("data", datagen.CFile), "Output csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return fmt.Errorf("-dir is required")
	}

	// Run only needs the executor and options; block sizes are irrelevant
	kr, err := runner.NewRunner(builder.Config{BM: 1, BN: 1, BK: 1, M: 1, N: 1, K: 1}, rf.options())
	if err != nil {
		return err
	}
	return kr.Run(ctx, *dir, *a, *b, *c)
}

// RunAllCommand generates data, compiles, runs and optionally verifies the
// result against a gonum reference
func RunAllCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("all", flag.ExitOnError)
	kf := addKernelFlags(fs)
	rf := addRunnerFlags(fs)
	dataDir := fs.String("data", "data", "Directory for a.csv, b.csv and c.csv")
	seed := fs.Uint64("seed", 0, "Random seed (0 = unseeded)")
	verify := fs.Bool("verify", false, "Compare c.csv against a host reference")
	tol := fs.Float64("tol", 1e-2, "Relative tolerance for -verify")
	cleanup := fs.Bool("cleanup", false, "Remove the work dir after running")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kr, err := newRunner(kf, rf)
	if err != nil {
		return err
	}
	data, err := datagen.GenerateMatmulData(*dataDir, kr.M, kr.N, kr.K, kr.DataType, seededSource(*seed))
	if err != nil {
		return err
	}

	dir, err := kr.Compile(ctx)
	if err != nil {
		return err
	}
	if *cleanup {
		defer runner.RemoveWorkDir(dir)
	}
	log.Printf("Kernel in path: %s", dir)

	log.Printf("Running kernel with arguments: %s %s %s %s", dir, data.APath, data.BPath, data.CPath)
	if err := kr.Run(ctx, dir, data.APath, data.BPath, data.CPath); err != nil {
		return err
	}

	if *verify {
		got, err := datagen.ReadResult(data.CPath, kr.M, kr.N)
		if err != nil {
			return err
		}
		if err := datagen.Compare(got, datagen.Reference(data.A, data.B), *tol); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		log.Printf("Result matches reference within %g", *tol)
	}
	log.Printf("Test completed.")
	return nil
}

func newRunner(kf *kernelFlags, rf *runnerFlags) (*runner.Runner, error) {
	cfg, err := kf.config()
	if err != nil {
		return nil, err
	}
	return runner.NewRunner(cfg, rf.options())
}

func seededSource(seed uint64) rand.Source {
	if seed == 0 {
		return nil
	}
	return rand.NewPCG(seed, seed)
}
