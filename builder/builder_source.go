package builder

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// File names produced in the work directory
const (
	KernelFile      = "kernel.py"
	KernelUtilsFile = "kernel_utils.py"
	TestDriverFile  = "test.c"

	// KernelName is the @triton.jit entry point defined in kernel.py
	KernelName = "kernel"
)

//go:embed kernels/kernel.py
var kernelSource string

//go:embed kernels/kernel_utils.py
var kernelUtilsSource string

//go:embed kernels/test.c.tmpl
var testDriverSource string

var testDriverTemplate = template.Must(template.New(TestDriverFile).Parse(testDriverSource))

// KernelSource returns the Triton matmul kernel emitted as kernel.py
func KernelSource() string { return kernelSource }

// KernelUtilsSource returns the helper module emitted as kernel_utils.py
func KernelUtilsSource() string { return kernelUtilsSource }

// WriteKernelSources writes kernel.py and kernel_utils.py into dir,
// overwriting existing files, and returns the path of kernel.py
func WriteKernelSources(dir string) (string, error) {
	kernelPath := filepath.Join(dir, KernelFile)
	if err := os.WriteFile(kernelPath, []byte(kernelSource), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", KernelFile, err)
	}
	utilsPath := filepath.Join(dir, KernelUtilsFile)
	if err := os.WriteFile(utilsPath, []byte(kernelUtilsSource), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", KernelUtilsFile, err)
	}
	return kernelPath, nil
}

type testDriverParams struct {
	M, N, K    int
	ElemSize   int
	HostType   string
	ScanFormat string
	OutName    string
	AlgoID     int
}

// GenerateTestDriver renders the C test driver. The driver reads A and B as
// raw bit patterns from CSV, launches the linked kernel through either the
// default entry point or the algo id dispatcher, and writes C as int32 CSV.
func (cfg Config) GenerateTestDriver() (string, error) {
	p := testDriverParams{
		M:        cfg.M,
		N:        cfg.N,
		K:        cfg.K,
		ElemSize: SizeOfType(cfg.DataType),
		OutName:  cfg.OutName(),
		AlgoID:   cfg.AlgoID,
	}
	if p.ElemSize == 2 {
		p.HostType, p.ScanFormat = "int16_t", "%hd"
	} else {
		p.HostType, p.ScanFormat = "int32_t", "%d"
	}

	var sb strings.Builder
	if err := testDriverTemplate.Execute(&sb, p); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", TestDriverFile, err)
	}
	return sb.String(), nil
}

// WriteTestDriver renders test.c into dir and returns its path
func (cfg Config) WriteTestDriver(dir string) (string, error) {
	src, err := cfg.GenerateTestDriver()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, TestDriverFile)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", TestDriverFile, err)
	}
	return path, nil
}
