package builder

import (
	"fmt"
	"strings"
)

// DataType represents the element type of the A and B operands
type DataType int

const (
	Float16 DataType = iota + 1
	BFloat16
	Float32
)

// String returns the Triton type name used in signatures and symbol names
func (dt DataType) String() string {
	switch dt {
	case Float16:
		return "fp16"
	case BFloat16:
		return "bf16"
	case Float32:
		return "fp32"
	default:
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
}

// ParseDataType maps a Triton type name to a DataType
func ParseDataType(name string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fp16", "float16":
		return Float16, nil
	case "bf16", "bfloat16":
		return BFloat16, nil
	case "fp32", "float32":
		return Float32, nil
	}
	return 0, fmt.Errorf("unsupported dtype %q", name)
}

// SizeOfType returns the size in bytes of a data type
func SizeOfType(dt DataType) int {
	switch dt {
	case Float16, BFloat16:
		return 2
	default:
		return 4
	}
}

// DefaultHints are the stride hint suffixes crossed to produce the
// specialized kernel variants. "" leaves the stride unhinted, ":16" marks it
// divisible by 16.
var DefaultHints = []string{"", ":16"}

// Config holds configuration for generating and compiling one matmul kernel
type Config struct {
	DataType DataType

	// Block sizes baked into the kernel as constexprs
	BM, BN, BK int

	// Problem size baked into the test driver
	M, N, K int

	NumWarps int
	Hints    []string // Stride hint suffixes, crossed for ha and hb
	AlgoID   int      // 0 dispatches to the default variant

	// NoSpecialization compiles only the unhinted variant
	NoSpecialization bool
}

// NewConfig returns a Config with defaults filled in for unset fields
func NewConfig(cfg Config) Config {
	if cfg.DataType == 0 {
		cfg.DataType = Float16
	}
	if cfg.NumWarps == 0 {
		cfg.NumWarps = 1
	}
	if cfg.Hints == nil {
		cfg.Hints = append([]string(nil), DefaultHints...)
	}
	return cfg
}

// Validate checks a Config before any file or process is touched
func (cfg Config) Validate() error {
	switch cfg.DataType {
	case Float16, BFloat16, Float32:
	default:
		return fmt.Errorf("unsupported dtype %v", cfg.DataType)
	}
	dims := []struct {
		name  string
		value int
	}{
		{"BM", cfg.BM}, {"BN", cfg.BN}, {"BK", cfg.BK},
		{"M", cfg.M}, {"N", cfg.N}, {"K", cfg.K},
		{"NumWarps", cfg.NumWarps},
	}
	for _, d := range dims {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", d.name, d.value)
		}
	}
	if cfg.AlgoID < 0 {
		return fmt.Errorf("AlgoID must not be negative, got %d", cfg.AlgoID)
	}
	if !cfg.NoSpecialization && len(cfg.Hints) == 0 {
		return fmt.Errorf("hint set is empty")
	}
	for _, h := range cfg.Hints {
		if h != "" && !strings.HasPrefix(h, ":") {
			return fmt.Errorf("stride hint %q must be empty or start with ':'", h)
		}
	}
	return nil
}

// OutName is the symbol prefix the compiler and linker emit, e.g. matmul_fp16
func (cfg Config) OutName() string {
	return "matmul_" + cfg.DataType.String()
}
