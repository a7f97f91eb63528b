package builder

import (
	"fmt"
	"strings"
)

// HintPair selects the stride hints for stride_cm (Ha) and stride_am (Hb)
type HintPair struct {
	Ha string
	Hb string
}

// Variant is one compiler invocation worth of kernel parameters
type Variant struct {
	Hints     HintPair
	Signature string
}

// HintPairs returns the cross product of the hint set, ha-major
func (cfg Config) HintPairs() []HintPair {
	pairs := make([]HintPair, 0, len(cfg.Hints)*len(cfg.Hints))
	for _, ha := range cfg.Hints {
		for _, hb := range cfg.Hints {
			pairs = append(pairs, HintPair{Ha: ha, Hb: hb})
		}
	}
	return pairs
}

// GenerateKernelSignature generates the type/shape signature for one
// specialized variant. Pointer operands are 16-byte aligned, the column
// strides are pinned to 1 and stride_bk to 16. stride_cm takes ha and
// stride_am takes hb.
func (cfg Config) GenerateKernelSignature(ha, hb string) string {
	dt := cfg.DataType.String()
	params := []string{
		"*fp32:16", // C
		fmt.Sprintf("*%s:16", dt),
		fmt.Sprintf("*%s:16", dt),
		"i32", "i32", "i32", // M, N, K
		"i32" + ha, "i32:1", // stride_cm, stride_cn
		"i32" + hb, "i32:1", // stride_am, stride_ak
		"i32:16", "i32:1", // stride_bk, stride_bn
	}
	return strings.Join(append(params, cfg.blockSizes()...), ", ")
}

// GenerateUnspecializedSignature generates a signature with no alignment or
// stride hints at all
func (cfg Config) GenerateUnspecializedSignature() string {
	dt := cfg.DataType.String()
	params := []string{"*fp32", "*" + dt, "*" + dt}
	for i := 0; i < 9; i++ {
		params = append(params, "i32")
	}
	return strings.Join(append(params, cfg.blockSizes()...), ", ")
}

func (cfg Config) blockSizes() []string {
	return []string{
		fmt.Sprint(cfg.BM),
		fmt.Sprint(cfg.BN),
		fmt.Sprint(cfg.BK),
	}
}

// GenerateGrid generates the launch grid expression passed with -g
func (cfg Config) GenerateGrid() string {
	return fmt.Sprintf("M/%d, N/%d, 1", cfg.BM, cfg.BN)
}

// Variants lists every signature the compile step must produce, in
// invocation order
func (cfg Config) Variants() []Variant {
	if cfg.NoSpecialization {
		return []Variant{{Signature: cfg.GenerateUnspecializedSignature()}}
	}
	pairs := cfg.HintPairs()
	variants := make([]Variant, len(pairs))
	for i, p := range pairs {
		variants[i] = Variant{
			Hints:     p,
			Signature: cfg.GenerateKernelSignature(p.Ha, p.Hb),
		}
	}
	return variants
}
